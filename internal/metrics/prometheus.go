package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CrawlDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hotel_kb_crawl_duration_seconds",
			Help:    "Duration of crawl sessions in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	PagesScraped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hotel_kb_pages_scraped_total",
			Help: "Total pages scraped and retained across all crawls",
		},
	)

	FetchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotel_kb_fetch_failures_total",
			Help: "Total fetch failures by kind",
		},
		[]string{"kind"},
	)

	LowValuePages = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hotel_kb_low_value_pages_total",
			Help: "Pages dropped for falling below the minimum word count",
		},
	)

	ChunksProduced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotel_kb_chunks_produced_total",
			Help: "Knowledge chunks produced by source type",
		},
		[]string{"source_type"},
	)

	DocumentsProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hotel_kb_documents_processed_total",
			Help: "Uploaded documents ingested successfully",
		},
	)

	DocumentFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotel_kb_document_failures_total",
			Help: "Document ingestion failures by kind",
		},
		[]string{"kind"},
	)

	CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hotel_kb_page_cache_hits_total",
			Help: "Fetched-page cache hits",
		},
	)

	CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hotel_kb_page_cache_misses_total",
			Help: "Fetched-page cache misses",
		},
	)
)

func Init() {
	prometheus.MustRegister(CrawlDuration)
	prometheus.MustRegister(PagesScraped)
	prometheus.MustRegister(FetchFailures)
	prometheus.MustRegister(LowValuePages)
	prometheus.MustRegister(ChunksProduced)
	prometheus.MustRegister(DocumentsProcessed)
	prometheus.MustRegister(DocumentFailures)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
