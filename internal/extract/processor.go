package extract

import (
	"time"

	"github.com/hotelchat/backend/internal/storage/models"
)

// Processor combines boilerplate stripping and heuristic classification into
// the default page-processing strategy used by the crawler.
type Processor struct {
	extractor  *Extractor
	classifier *Classifier
}

func NewProcessor(minWordCount int, densityThreshold float64) *Processor {
	return &Processor{
		extractor:  NewExtractor(minWordCount),
		classifier: NewClassifier(densityThreshold),
	}
}

// Process turns raw HTML into a PageRecord. The second return value is false
// when the page cleaned down below the minimum word count and should be
// dropped rather than stored.
func (p *Processor) Process(pageURL, html string, fetchedAt time.Time) (models.PageRecord, bool, error) {
	page, err := p.extractor.Extract(html, pageURL)
	if err != nil {
		return models.PageRecord{}, false, err
	}

	if p.extractor.LowValue(page) || page.Text == "" {
		return models.PageRecord{}, false, nil
	}

	return models.PageRecord{
		URL:       pageURL,
		Title:     page.Title,
		Content:   page.Text,
		PageType:  p.classifier.Classify(pageURL, page.Text),
		WordCount: page.WordCount,
		FetchedAt: fetchedAt,
	}, true, nil
}
