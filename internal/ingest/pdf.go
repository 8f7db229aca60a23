package ingest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/hotelchat/backend/internal/storage/models"
)

var pdfWhitespaceRe = regexp.MustCompile(`\s+`)

// extractPDF pulls plain text from every page. Pages with no extractable
// text (scanned images) become empty segments rather than failing the
// document, so page numbering in provenance stays intact.
func extractPDF(path string) ([]models.DocumentSegment, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	total := reader.NumPage()
	segments := make([]models.DocumentSegment, 0, total)

	for n := 1; n <= total; n++ {
		text := ""

		page := reader.Page(n)
		if !page.V.IsNull() {
			// per-page extraction failures degrade to an empty segment
			if raw, err := page.GetPlainText(nil); err == nil {
				text = strings.TrimSpace(pdfWhitespaceRe.ReplaceAllString(raw, " "))
			}
		}

		segments = append(segments, models.DocumentSegment{
			Index: n - 1,
			Label: fmt.Sprintf("page %d", n),
			Text:  text,
		})
	}

	return segments, nil
}
