package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hotelchat/backend/internal/chunker"
	"github.com/hotelchat/backend/internal/extract"
	"github.com/hotelchat/backend/internal/ingest"
	"github.com/hotelchat/backend/internal/scraper"
	"github.com/hotelchat/backend/internal/storage/models"
	"github.com/hotelchat/backend/internal/storage/sqlite"
	"github.com/hotelchat/backend/pkg/config"
	"github.com/hotelchat/backend/pkg/utils"
)

var ErrInvalidRequest = errors.New("invalid request")

// KnowledgeService runs the two ingestion pipelines and owns persistence of
// their results. It holds no per-session state: every crawl gets its own
// fetcher, frontier, and crawler, so sessions for different hotels can run
// concurrently without sharing anything mutable.
type KnowledgeService struct {
	cfg      *config.Config
	store    *sqlite.Client
	cache    scraper.PageCache
	ingestor *ingest.Ingestor
	chunker  *chunker.Chunker
	progress *ProgressHub
	logger   *zap.Logger
}

func NewKnowledgeService(cfg *config.Config, store *sqlite.Client, cache scraper.PageCache, logger *zap.Logger) *KnowledgeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KnowledgeService{
		cfg:      cfg,
		store:    store,
		cache:    cache,
		ingestor: ingest.NewIngestor(logger),
		chunker:  chunker.New(cfg.Chunker.TargetSize, cfg.Chunker.Overlap, cfg.Chunker.MinSize, logger),
		progress: NewProgressHub(),
		logger:   logger,
	}
}

// Progress exposes the hub so transport handlers can stream crawl progress.
func (s *KnowledgeService) Progress() *ProgressHub {
	return s.progress
}

// ScrapeReport summarizes a finished scrape for the presentation layer.
type ScrapeReport struct {
	Result      *models.SiteResult `json:"result"`
	ChunksMade  int                `json:"chunks_made"`
	FailedPages int                `json:"failed_pages"`
}

// Scrape crawls a hotel website, chunks the pages, and persists both the
// site result and the chunks. maxPages and delaySec of zero take the
// configured defaults. An unreachable seed yields an aborted result, not an
// error: the session outcome is data, reported with its failure.
func (s *KnowledgeService) Scrape(ctx context.Context, hotelID, seedURL string, maxPages int, delaySec float64) (*ScrapeReport, error) {
	if maxPages == 0 {
		maxPages = s.cfg.Crawler.DefaultMaxPages
	}
	if delaySec == 0 {
		delaySec = s.cfg.Crawler.DefaultDelaySec
	}
	if err := s.validateScrape(hotelID, seedURL, maxPages, delaySec); err != nil {
		return nil, err
	}

	result, err := s.crawl(ctx, hotelID, seedURL, maxPages, delaySec, true)
	if err != nil {
		return nil, err
	}

	chunks := s.chunker.ChunkSite(result)

	if err := s.store.SaveSiteResult(result); err != nil {
		return nil, fmt.Errorf("persist crawl result: %w", err)
	}
	if len(chunks) > 0 {
		if err := s.store.SaveChunks(hotelID, chunks); err != nil {
			return nil, fmt.Errorf("persist chunks: %w", err)
		}
	}
	if result.Status == models.CrawlCompleted {
		if err := s.store.RecordScrape(hotelID, result.Metadata.PagesScraped, result.FinishedAt); err != nil {
			s.logger.Warn("Failed to update hotel status", zap.String("hotel_id", hotelID), zap.Error(err))
		}
	}

	s.logger.Info("Scrape finished",
		zap.String("hotel_id", hotelID),
		zap.String("status", string(result.Status)),
		zap.Int("pages", result.Metadata.PagesScraped),
		zap.Int("chunks", len(chunks)),
		zap.Int("failures", len(result.Failures)),
	)

	return &ScrapeReport{
		Result:      result,
		ChunksMade:  len(chunks),
		FailedPages: len(result.Failures),
	}, nil
}

// Preview runs a short crawl without persisting anything, so an operator
// can inspect what a full scrape would collect.
func (s *KnowledgeService) Preview(ctx context.Context, hotelID, seedURL string) (*models.SiteResult, error) {
	if err := s.validateScrape(hotelID, seedURL, s.cfg.Crawler.PreviewMaxPages, s.cfg.Crawler.PreviewDelaySec); err != nil {
		return nil, err
	}
	return s.crawl(ctx, hotelID, seedURL, s.cfg.Crawler.PreviewMaxPages, s.cfg.Crawler.PreviewDelaySec, false)
}

func (s *KnowledgeService) crawl(ctx context.Context, hotelID, seedURL string, maxPages int, delaySec float64, publish bool) (*models.SiteResult, error) {
	u, _ := url.Parse(seedURL)

	fetcher := scraper.NewFetcher(u.Host, scraper.FetcherConfig{
		Timeout:   time.Duration(s.cfg.Crawler.FetchTimeoutSec) * time.Second,
		Delay:     time.Duration(delaySec * float64(time.Second)),
		Retries:   s.cfg.Crawler.FetchRetries,
		UserAgent: s.cfg.Crawler.UserAgent,
		Cache:     s.cache,
		Logger:    s.logger,
	})
	processor := extract.NewProcessor(s.cfg.Crawler.MinWordCount, s.cfg.Crawler.DensityThreshold)
	crawler := scraper.NewCrawler(fetcher, processor, s.logger)

	opts := scraper.Options{MaxPages: maxPages}
	if publish {
		opts.Observer = func(fetched, budget int, pageURL string) {
			s.progress.Publish(ProgressEvent{
				HotelID:      hotelID,
				PagesFetched: fetched,
				Budget:       budget,
				URL:          pageURL,
			})
		}
	}

	result, err := crawler.Crawl(ctx, seedURL, opts)
	if err != nil {
		return nil, err
	}

	result.SessionID = uuid.New().String()
	result.HotelID = hotelID

	if publish {
		s.progress.Publish(ProgressEvent{
			HotelID:      hotelID,
			PagesFetched: result.Metadata.PagesScraped,
			Budget:       maxPages,
			Done:         true,
		})
	}

	return result, nil
}

func (s *KnowledgeService) validateScrape(hotelID, seedURL string, maxPages int, delaySec float64) error {
	if hotelID == "" {
		return fmt.Errorf("%w: hotel id is required", ErrInvalidRequest)
	}

	u, err := url.Parse(seedURL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: seed url must be absolute http(s)", ErrInvalidRequest)
	}

	if maxPages < 1 || maxPages > s.cfg.Crawler.MaxPagesUpperBound {
		return fmt.Errorf("%w: max pages must be in [1, %d]", ErrInvalidRequest, s.cfg.Crawler.MaxPagesUpperBound)
	}
	if delaySec < 0 {
		return fmt.Errorf("%w: delay must be >= 0", ErrInvalidRequest)
	}

	return nil
}

// IngestReport summarizes one document upload.
type IngestReport struct {
	Success      bool   `json:"success"`
	SourceName   string `json:"source_name"`
	SourceKind   string `json:"source_kind"`
	Segments     int    `json:"segments"`
	TextSegments int    `json:"text_segments"`
	ChunksMade   int    `json:"chunks_made"`
}

// IngestAndChunk extracts an uploaded file, chunks it, and persists the
// chunks for the hotel. projectID is recorded as-is for the downstream
// embedding collaborator; this layer does not interpret it. Failures are
// scoped to the one document.
func (s *KnowledgeService) IngestAndChunk(ctx context.Context, hotelID, filePath, sourceName, description, projectID string) (*IngestReport, error) {
	if hotelID == "" {
		return nil, fmt.Errorf("%w: hotel id is required", ErrInvalidRequest)
	}
	if sourceName == "" {
		return nil, fmt.Errorf("%w: source name is required", ErrInvalidRequest)
	}

	record, err := s.ingestor.Ingest(filePath, sourceName)
	if err != nil {
		return nil, err
	}

	chunks := s.chunker.ChunkDocument(record)

	docID := utils.HashString(hotelID + "/" + sourceName)
	if err := s.store.SaveDocument(docID, hotelID, record, description, projectID); err != nil {
		return nil, fmt.Errorf("persist document: %w", err)
	}
	if len(chunks) > 0 {
		if err := s.store.SaveChunks(hotelID, chunks); err != nil {
			return nil, fmt.Errorf("persist chunks: %w", err)
		}
	}
	if err := s.store.RecordDocumentUpload(hotelID); err != nil {
		s.logger.Warn("Failed to update hotel status", zap.String("hotel_id", hotelID), zap.Error(err))
	}

	s.logger.Info("Document ingested and chunked",
		zap.String("hotel_id", hotelID),
		zap.String("source", sourceName),
		zap.Int("chunks", len(chunks)),
	)

	return &IngestReport{
		Success:      true,
		SourceName:   record.SourceName,
		SourceKind:   string(record.SourceKind),
		Segments:     len(record.Segments),
		TextSegments: record.TextSegmentCount(),
		ChunksMade:   len(chunks),
	}, nil
}

// Results returns the most recent persisted crawl result for a hotel.
func (s *KnowledgeService) Results(hotelID string) (*models.SiteResult, error) {
	return s.store.LoadSiteResult(hotelID)
}

// Chunks returns every persisted chunk for a hotel, in source order. This
// is the handoff contract for the embedding collaborator.
func (s *KnowledgeService) Chunks(hotelID string) ([]models.KnowledgeChunk, error) {
	return s.store.GetChunks(hotelID)
}

// Status returns the per-hotel rollup counters.
func (s *KnowledgeService) Status(hotelID string) (*models.HotelStatus, error) {
	return s.store.GetHotelStatus(hotelID)
}
