package models

import "time"

// PageType is the content category assigned to a crawled page.
type PageType string

const (
	PageTypeRoom    PageType = "room"
	PageTypePricing PageType = "pricing"
	PageTypeAmenity PageType = "amenity"
	PageTypeDining  PageType = "dining"
	PageTypePolicy  PageType = "policy"
	PageTypeContact PageType = "contact"
	PageTypeAbout   PageType = "about"
	PageTypeOther   PageType = "other"
)

// PageTypeOrder fixes the classification priority. When keyword scores tie,
// the earlier type wins, so classification stays reproducible.
var PageTypeOrder = []PageType{
	PageTypeRoom,
	PageTypePricing,
	PageTypeAmenity,
	PageTypeDining,
	PageTypePolicy,
	PageTypeContact,
	PageTypeAbout,
	PageTypeOther,
}

// CrawlStatus is the lifecycle state of a crawl session.
type CrawlStatus string

const (
	CrawlIdle      CrawlStatus = "idle"
	CrawlRunning   CrawlStatus = "running"
	CrawlCompleted CrawlStatus = "completed"
	CrawlAborted   CrawlStatus = "aborted"
)

// PageRecord is one successfully fetched and cleaned page. Content is always
// non-empty; pages that clean down to nothing are never stored.
type PageRecord struct {
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	PageType  PageType  `json:"page_type"`
	WordCount int       `json:"word_count"`
	FetchedAt time.Time `json:"fetched_at"`
}

// SiteMetadata aggregates counts over a finished crawl.
type SiteMetadata struct {
	TotalWords   int              `json:"total_words"`
	PageTypes    map[PageType]int `json:"page_types"`
	PagesScraped int              `json:"pages_scraped"`
}

// FetchFailure records a single per-page failure. Failures accumulate in the
// session result; they never abort the crawl.
type FetchFailure struct {
	URL    string `json:"url"`
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

// SiteResult is the complete output of one crawl session. It is immutable
// once the crawl finishes.
type SiteResult struct {
	SessionID  string         `json:"session_id"`
	HotelID    string         `json:"hotel_id"`
	SeedURL    string         `json:"seed_url"`
	Status     CrawlStatus    `json:"status"`
	Pages      []PageRecord   `json:"pages"`
	Metadata   SiteMetadata   `json:"metadata"`
	Failures   []FetchFailure `json:"failures,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

// SourceKind distinguishes uploaded document formats.
type SourceKind string

const (
	SourceKindPDF         SourceKind = "pdf"
	SourceKindSpreadsheet SourceKind = "spreadsheet"
)

// DocumentSegment is one extracted unit of an uploaded file: a PDF page or a
// spreadsheet sheet. Text may be empty (image-only PDF pages keep their slot).
type DocumentSegment struct {
	Index int    `json:"index"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

// DocumentRecord is the extraction result for one uploaded file.
type DocumentRecord struct {
	SourceName string            `json:"source_name"`
	SourceKind SourceKind        `json:"source_kind"`
	Segments   []DocumentSegment `json:"segments"`
}

// TextSegmentCount returns how many segments carry extractable text.
func (d *DocumentRecord) TextSegmentCount() int {
	n := 0
	for _, s := range d.Segments {
		if s.Text != "" {
			n++
		}
	}
	return n
}

// SourceType tells which pipeline produced a chunk.
type SourceType string

const (
	SourceTypeWeb      SourceType = "web"
	SourceTypeDocument SourceType = "document"
)

// KnowledgeChunk is the retrieval unit handed to the embedding collaborator.
// ChunkID is derived from (SourceRef, Position) so re-ingesting identical
// content yields identical IDs and the downstream store can upsert.
type KnowledgeChunk struct {
	ChunkID          string     `json:"chunk_id"`
	Text             string     `json:"text"`
	SourceType       SourceType `json:"source_type"`
	SourceRef        string     `json:"source_ref"`
	PageTypeOrOrigin string     `json:"page_type_or_origin"`
	Position         int        `json:"position"`
	OverlapWithPrev  int        `json:"overlap_with_prev"`
}

// HotelStatus is the per-hotel rollup shown by the presentation layer.
type HotelStatus struct {
	HotelID           string     `json:"hotel_id"`
	PagesScraped      int        `json:"pages_scraped"`
	DocumentsUploaded int        `json:"documents_uploaded"`
	LastScrape        *time.Time `json:"last_scrape,omitempty"`
}
