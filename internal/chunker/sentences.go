package chunker

import (
	"regexp"
	"strings"

	prose "github.com/jdkato/prose/v2"
)

var naiveBoundaryRe = regexp.MustCompile(`([.!?])\s+`)

// splitSentences segments text into trimmed sentences. Tagging and entity
// extraction are switched off; only the segmenter runs.
func splitSentences(text string) []string {
	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return naiveSplit(text)
	}

	sentences := doc.Sentences()
	out := make([]string, 0, len(sentences))
	for _, s := range sentences {
		trimmed := strings.TrimSpace(s.Text)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}

	if len(out) == 0 {
		return naiveSplit(text)
	}
	return out
}

// naiveSplit is the fallback when segmentation fails: break on terminal
// punctuation followed by whitespace.
func naiveSplit(text string) []string {
	marked := naiveBoundaryRe.ReplaceAllString(text, "$1\x00")

	var out []string
	for _, s := range strings.Split(marked, "\x00") {
		trimmed := strings.TrimSpace(s)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
