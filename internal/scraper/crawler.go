package scraper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hotelchat/backend/internal/metrics"
	"github.com/hotelchat/backend/internal/storage/models"
)

// PageProcessor turns fetched HTML into a PageRecord. Implementations choose
// their own extraction and classification strategy; the crawler only cares
// about the record, whether to keep it, and parse errors.
type PageProcessor interface {
	Process(pageURL, html string, fetchedAt time.Time) (models.PageRecord, bool, error)
}

// ProgressFunc receives coarse-grained crawl progress: pages collected so
// far, the page budget, and the URL just processed.
type ProgressFunc func(fetched, budget int, url string)

// Options configures a single crawl session.
type Options struct {
	MaxPages int
	Observer ProgressFunc
}

// Crawler drives one polite, sequential crawl of a hotel website. Requests
// within a session are never parallel: the politeness delay makes concurrent
// fetches against one host pointless. Concurrency belongs across sessions
// for different hosts, each with its own Crawler and Fetcher.
type Crawler struct {
	fetcher   *Fetcher
	processor PageProcessor
	logger    *zap.Logger
}

func NewCrawler(fetcher *Fetcher, processor PageProcessor, logger *zap.Logger) *Crawler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Crawler{
		fetcher:   fetcher,
		processor: processor,
		logger:    logger,
	}
}

// Crawl walks the site starting at seedURL until the page budget is reached
// or the frontier is exhausted. Per-page failures are recorded and the crawl
// continues; only an unreachable seed aborts the session. Cancellation is
// checked at the top of each iteration, so an in-flight fetch finishes
// before the session stops.
func (c *Crawler) Crawl(ctx context.Context, seedURL string, opts Options) (*models.SiteResult, error) {
	frontier, err := NewFrontier(seedURL)
	if err != nil {
		return nil, err
	}

	result := &models.SiteResult{
		SeedURL:   seedURL,
		Status:    models.CrawlRunning,
		StartedAt: time.Now().UTC(),
		Metadata:  models.SiteMetadata{PageTypes: make(map[models.PageType]int)},
	}

	start := time.Now()
	defer func() {
		metrics.CrawlDuration.Observe(time.Since(start).Seconds())
	}()

	seed := true
	for len(result.Pages) < opts.MaxPages {
		if ctx.Err() != nil {
			c.logger.Info("Crawl cancelled",
				zap.String("seed_url", seedURL),
				zap.Int("pages", len(result.Pages)),
			)
			break
		}

		pageURL, ok := frontier.Next()
		if !ok {
			break
		}

		html, err := c.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			if seed {
				c.logger.Error("Seed URL unreachable, aborting crawl",
					zap.String("seed_url", seedURL),
					zap.Error(err),
				)
				result.Failures = append(result.Failures, models.FetchFailure{
					URL:    pageURL,
					Kind:   FailureKind(ErrUnreachableSeed),
					Reason: err.Error(),
				})
				metrics.FetchFailures.WithLabelValues(FailureKind(ErrUnreachableSeed)).Inc()
				c.finish(result, models.CrawlAborted)
				return result, nil
			}

			c.logger.Warn("Fetch failed, continuing",
				zap.String("url", pageURL),
				zap.String("kind", FailureKind(err)),
				zap.Error(err),
			)
			result.Failures = append(result.Failures, models.FetchFailure{
				URL:    pageURL,
				Kind:   FailureKind(err),
				Reason: err.Error(),
			})
			metrics.FetchFailures.WithLabelValues(FailureKind(err)).Inc()
			continue
		}
		seed = false

		record, keep, err := c.processor.Process(pageURL, html, time.Now().UTC())
		if err != nil {
			c.logger.Warn("Page parse failed, skipping",
				zap.String("url", pageURL),
				zap.Error(err),
			)
			result.Failures = append(result.Failures, models.FetchFailure{
				URL:    pageURL,
				Kind:   FailureKind(ErrParse),
				Reason: err.Error(),
			})
			metrics.FetchFailures.WithLabelValues(FailureKind(ErrParse)).Inc()
			continue
		}
		if !keep {
			c.logger.Debug("Dropping low-value page", zap.String("url", pageURL))
			metrics.LowValuePages.Inc()
			continue
		}

		for _, link := range ExtractLinks(html, pageURL) {
			frontier.Enqueue(link)
		}

		result.Pages = append(result.Pages, record)
		metrics.PagesScraped.Inc()

		c.logger.Debug("Page scraped",
			zap.String("url", pageURL),
			zap.String("page_type", string(record.PageType)),
			zap.Int("words", record.WordCount),
			zap.Int("frontier", frontier.Len()),
		)

		if opts.Observer != nil {
			opts.Observer(len(result.Pages), opts.MaxPages, pageURL)
		}
	}

	c.finish(result, models.CrawlCompleted)

	c.logger.Info("Crawl finished",
		zap.String("seed_url", seedURL),
		zap.Int("pages_scraped", result.Metadata.PagesScraped),
		zap.Int("failures", len(result.Failures)),
		zap.Int("total_words", result.Metadata.TotalWords),
	)

	return result, nil
}

// finish seals the result: aggregate metadata is computed once here and the
// result is never mutated afterwards.
func (c *Crawler) finish(result *models.SiteResult, status models.CrawlStatus) {
	result.Status = status
	result.FinishedAt = time.Now().UTC()
	result.Metadata.PagesScraped = len(result.Pages)
	for _, p := range result.Pages {
		result.Metadata.TotalWords += p.WordCount
		result.Metadata.PageTypes[p.PageType]++
	}
}
