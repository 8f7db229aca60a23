package extract

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// boilerplateSelector matches elements stripped before text extraction.
const boilerplateSelector = "script, style, noscript, nav, footer, header, form, aside, iframe"

// Page is the cleaned content of a single HTML document.
type Page struct {
	Title     string
	Text      string
	WordCount int
}

// Extractor strips boilerplate from raw HTML and yields clean text. A page
// whose cleaned word count falls below MinWordCount is reported as low value
// so the crawler can drop it.
type Extractor struct {
	MinWordCount int
}

func NewExtractor(minWordCount int) *Extractor {
	if minWordCount <= 0 {
		minWordCount = 50
	}
	return &Extractor{MinWordCount: minWordCount}
}

// Extract parses html, removes boilerplate elements and collapses whitespace.
// pageURL is only used for the last-resort title fallback.
func (e *Extractor) Extract(html, pageURL string) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Page{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	title := extractTitle(doc, pageURL)

	doc.Find(boilerplateSelector).Remove()

	text := doc.Find("body").Text()
	if strings.TrimSpace(text) == "" {
		text = doc.Text()
	}
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	return Page{
		Title:     title,
		Text:      text,
		WordCount: len(strings.Fields(text)),
	}, nil
}

// LowValue reports whether a page should be excluded from the result set.
func (e *Extractor) LowValue(p Page) bool {
	return p.WordCount < e.MinWordCount
}

func extractTitle(doc *goquery.Document, pageURL string) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title != "" {
		return title
	}

	heading := strings.TrimSpace(doc.Find("h1, h2").First().Text())
	if heading != "" {
		return heading
	}

	return titleFromURL(pageURL)
}

// titleFromURL falls back to the last path segment, de-slugged.
func titleFromURL(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "Home"
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	last := segments[len(segments)-1]
	last = strings.TrimSuffix(last, ".html")
	last = strings.ReplaceAll(last, "-", " ")
	last = strings.ReplaceAll(last, "_", " ")
	if last == "" {
		return "Home"
	}
	return strings.Title(last)
}
