package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hotelchat/backend/internal/metrics"
	"github.com/hotelchat/backend/internal/storage/models"
)

// Ingestion failure sentinels. Each failure is scoped to the one document
// being ingested; it never affects other uploads.
var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrDocumentRead      = errors.New("document unreadable")
	ErrEmptyDocument     = errors.New("no extractable text in document")
)

// Ingestor extracts text from uploaded files: PDFs page by page,
// spreadsheets sheet by sheet. Ingestions share no mutable state, so
// multiple files may be processed concurrently, one Ingest call each.
type Ingestor struct {
	logger *zap.Logger
}

func NewIngestor(logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{logger: logger}
}

// Ingest extracts a DocumentRecord from the file at path. sourceName is the
// original upload filename, used for provenance (path usually points at a
// temp file).
func (i *Ingestor) Ingest(path, sourceName string) (*models.DocumentRecord, error) {
	var (
		segments []models.DocumentSegment
		kind     models.SourceKind
		err      error
	)

	switch ext := strings.ToLower(filepath.Ext(sourceName)); ext {
	case ".pdf":
		kind = models.SourceKindPDF
		segments, err = extractPDF(path)
	case ".xlsx", ".xls":
		kind = models.SourceKindSpreadsheet
		segments, err = extractSpreadsheet(path)
	default:
		metrics.DocumentFailures.WithLabelValues("unsupported").Inc()
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	if err != nil {
		metrics.DocumentFailures.WithLabelValues("read").Inc()
		i.logger.Error("Document extraction failed",
			zap.String("source", sourceName),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrDocumentRead, err)
	}

	record := &models.DocumentRecord{
		SourceName: sourceName,
		SourceKind: kind,
		Segments:   segments,
	}

	if err := validate(record); err != nil {
		metrics.DocumentFailures.WithLabelValues("empty").Inc()
		return nil, err
	}

	metrics.DocumentsProcessed.Inc()
	i.logger.Info("Document ingested",
		zap.String("source", sourceName),
		zap.String("kind", string(kind)),
		zap.Int("segments", len(record.Segments)),
		zap.Int("text_segments", record.TextSegmentCount()),
	)

	return record, nil
}

// validate rejects documents with no extractable text anywhere. Individual
// empty segments are fine: an image-only PDF page keeps its slot as long as
// at least one other page yielded text.
func validate(record *models.DocumentRecord) error {
	if record.TextSegmentCount() == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyDocument, record.SourceName)
	}
	return nil
}
