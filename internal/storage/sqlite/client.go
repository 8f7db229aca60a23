package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/hotelchat/backend/internal/storage/models"
	"github.com/hotelchat/backend/pkg/logger"
)

// ErrNotFound is returned when no crawl result or status exists for a hotel.
var ErrNotFound = errors.New("not found")

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS crawl_sessions (
		id TEXT PRIMARY KEY,
		hotel_id TEXT NOT NULL,
		seed_url TEXT NOT NULL,
		status TEXT NOT NULL,
		pages_scraped INTEGER NOT NULL,
		total_words INTEGER NOT NULL,
		page_types TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_hotel ON crawl_sessions(hotel_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_finished ON crawl_sessions(finished_at);

	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		url TEXT NOT NULL,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		page_type TEXT NOT NULL,
		word_count INTEGER NOT NULL,
		fetched_at INTEGER NOT NULL,
		FOREIGN KEY (session_id) REFERENCES crawl_sessions(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_pages_session ON pages(session_id);

	CREATE TABLE IF NOT EXISTS crawl_failures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		url TEXT NOT NULL,
		kind TEXT NOT NULL,
		reason TEXT,
		FOREIGN KEY (session_id) REFERENCES crawl_sessions(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_failures_session ON crawl_failures(session_id);

	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		hotel_id TEXT NOT NULL,
		source_name TEXT NOT NULL,
		source_kind TEXT NOT NULL,
		segment_count INTEGER NOT NULL,
		description TEXT,
		project_id TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_documents_hotel ON documents(hotel_id);

	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		hotel_id TEXT NOT NULL,
		source_type TEXT NOT NULL,
		source_ref TEXT NOT NULL,
		page_type_or_origin TEXT NOT NULL,
		position INTEGER NOT NULL,
		text TEXT NOT NULL,
		overlap_with_prev INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_hotel ON chunks(hotel_id);
	CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source_ref);

	CREATE TABLE IF NOT EXISTS hotel_status (
		hotel_id TEXT PRIMARY KEY,
		pages_scraped INTEGER NOT NULL DEFAULT 0,
		documents_uploaded INTEGER NOT NULL DEFAULT 0,
		last_scrape INTEGER
	);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// SaveSiteResult persists a whole crawl session: the session row, every page
// in order, and every accumulated failure, in one transaction.
func (c *Client) SaveSiteResult(result *models.SiteResult) error {
	pageTypesJSON, err := json.Marshal(result.Metadata.PageTypes)
	if err != nil {
		return fmt.Errorf("failed to marshal page types: %w", err)
	}

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO crawl_sessions (id, hotel_id, seed_url, status, pages_scraped, total_words, page_types, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.SessionID,
		result.HotelID,
		result.SeedURL,
		string(result.Status),
		result.Metadata.PagesScraped,
		result.Metadata.TotalWords,
		string(pageTypesJSON),
		result.StartedAt.Unix(),
		result.FinishedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert crawl session: %w", err)
	}

	for i, page := range result.Pages {
		_, err = tx.Exec(`
			INSERT INTO pages (session_id, position, url, title, content, page_type, word_count, fetched_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			result.SessionID,
			i,
			page.URL,
			page.Title,
			page.Content,
			string(page.PageType),
			page.WordCount,
			page.FetchedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert page: %w", err)
		}
	}

	for _, failure := range result.Failures {
		_, err = tx.Exec(`
			INSERT INTO crawl_failures (session_id, url, kind, reason)
			VALUES (?, ?, ?, ?)`,
			result.SessionID,
			failure.URL,
			failure.Kind,
			failure.Reason,
		)
		if err != nil {
			return fmt.Errorf("failed to insert failure: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit crawl session: %w", err)
	}

	logger.Debug("Crawl session saved",
		zap.String("session_id", result.SessionID),
		zap.String("hotel_id", result.HotelID),
		zap.Int("pages", len(result.Pages)),
	)
	return nil
}

// LoadSiteResult returns the most recent crawl session for a hotel with
// pages in their original order. Every stored field round-trips.
func (c *Client) LoadSiteResult(hotelID string) (*models.SiteResult, error) {
	row := c.db.QueryRow(`
		SELECT id, hotel_id, seed_url, status, pages_scraped, total_words, page_types, started_at, finished_at
		FROM crawl_sessions
		WHERE hotel_id = ?
		ORDER BY finished_at DESC, id DESC
		LIMIT 1`, hotelID)

	var result models.SiteResult
	var status, pageTypesJSON string
	var startedAt, finishedAt int64

	err := row.Scan(
		&result.SessionID,
		&result.HotelID,
		&result.SeedURL,
		&status,
		&result.Metadata.PagesScraped,
		&result.Metadata.TotalWords,
		&pageTypesJSON,
		&startedAt,
		&finishedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load crawl session: %w", err)
	}

	result.Status = models.CrawlStatus(status)
	result.StartedAt = time.Unix(startedAt, 0).UTC()
	result.FinishedAt = time.Unix(finishedAt, 0).UTC()
	result.Metadata.PageTypes = make(map[models.PageType]int)
	if err := json.Unmarshal([]byte(pageTypesJSON), &result.Metadata.PageTypes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal page types: %w", err)
	}

	rows, err := c.db.Query(`
		SELECT url, title, content, page_type, word_count, fetched_at
		FROM pages
		WHERE session_id = ?
		ORDER BY position`, result.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var page models.PageRecord
		var pageType string
		var fetchedAt int64

		err := rows.Scan(&page.URL, &page.Title, &page.Content, &pageType, &page.WordCount, &fetchedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}

		page.PageType = models.PageType(pageType)
		page.FetchedAt = time.Unix(fetchedAt, 0).UTC()
		result.Pages = append(result.Pages, page)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pages: %w", err)
	}

	failureRows, err := c.db.Query(`
		SELECT url, kind, reason
		FROM crawl_failures
		WHERE session_id = ?
		ORDER BY id`, result.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load failures: %w", err)
	}
	defer failureRows.Close()

	for failureRows.Next() {
		var failure models.FetchFailure
		if err := failureRows.Scan(&failure.URL, &failure.Kind, &failure.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan failure: %w", err)
		}
		result.Failures = append(result.Failures, failure)
	}
	if err := failureRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate failures: %w", err)
	}

	return &result, nil
}

// SaveChunks upserts chunks by their deterministic IDs, so re-ingesting the
// same source replaces content in place instead of duplicating it.
func (c *Client) SaveChunks(hotelID string, chunks []models.KnowledgeChunk) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO chunks (id, hotel_id, source_type, source_ref, page_type_or_origin, position, text, overlap_with_prev, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			page_type_or_origin = excluded.page_type_or_origin,
			overlap_with_prev = excluded.overlap_with_prev,
			created_at = excluded.created_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, chunk := range chunks {
		_, err := stmt.Exec(
			chunk.ChunkID,
			hotelID,
			string(chunk.SourceType),
			chunk.SourceRef,
			chunk.PageTypeOrOrigin,
			chunk.Position,
			chunk.Text,
			chunk.OverlapWithPrev,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunks: %w", err)
	}

	logger.Debug("Chunks saved", zap.String("hotel_id", hotelID), zap.Int("count", len(chunks)))
	return nil
}

// GetChunks returns a hotel's chunks ordered by source and position, the
// same order the chunker emitted them in.
func (c *Client) GetChunks(hotelID string) ([]models.KnowledgeChunk, error) {
	rows, err := c.db.Query(`
		SELECT id, source_type, source_ref, page_type_or_origin, position, text, overlap_with_prev
		FROM chunks
		WHERE hotel_id = ?
		ORDER BY source_ref, position`, hotelID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.KnowledgeChunk
	for rows.Next() {
		var chunk models.KnowledgeChunk
		var sourceType string

		err := rows.Scan(
			&chunk.ChunkID,
			&sourceType,
			&chunk.SourceRef,
			&chunk.PageTypeOrOrigin,
			&chunk.Position,
			&chunk.Text,
			&chunk.OverlapWithPrev,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}

		chunk.SourceType = models.SourceType(sourceType)
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chunks: %w", err)
	}

	return chunks, nil
}

// SaveDocument records an ingested upload's provenance row.
func (c *Client) SaveDocument(id, hotelID string, record *models.DocumentRecord, description, projectID string) error {
	_, err := c.db.Exec(`
		INSERT INTO documents (id, hotel_id, source_name, source_kind, segment_count, description, project_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			segment_count = excluded.segment_count,
			description = excluded.description,
			created_at = excluded.created_at`,
		id,
		hotelID,
		record.SourceName,
		string(record.SourceKind),
		len(record.Segments),
		description,
		projectID,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// RecordScrape bumps a hotel's status row after a completed crawl.
func (c *Client) RecordScrape(hotelID string, pagesScraped int, at time.Time) error {
	_, err := c.db.Exec(`
		INSERT INTO hotel_status (hotel_id, pages_scraped, last_scrape)
		VALUES (?, ?, ?)
		ON CONFLICT(hotel_id) DO UPDATE SET
			pages_scraped = excluded.pages_scraped,
			last_scrape = excluded.last_scrape`,
		hotelID, pagesScraped, at.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record scrape: %w", err)
	}
	return nil
}

// RecordDocumentUpload increments a hotel's uploaded-document count.
func (c *Client) RecordDocumentUpload(hotelID string) error {
	_, err := c.db.Exec(`
		INSERT INTO hotel_status (hotel_id, documents_uploaded)
		VALUES (?, 1)
		ON CONFLICT(hotel_id) DO UPDATE SET
			documents_uploaded = documents_uploaded + 1`,
		hotelID,
	)
	if err != nil {
		return fmt.Errorf("failed to record document upload: %w", err)
	}
	return nil
}

// GetHotelStatus returns the per-hotel rollup for the presentation layer.
func (c *Client) GetHotelStatus(hotelID string) (*models.HotelStatus, error) {
	row := c.db.QueryRow(`
		SELECT hotel_id, pages_scraped, documents_uploaded, last_scrape
		FROM hotel_status
		WHERE hotel_id = ?`, hotelID)

	var status models.HotelStatus
	var lastScrape sql.NullInt64

	err := row.Scan(&status.HotelID, &status.PagesScraped, &status.DocumentsUploaded, &lastScrape)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hotel status: %w", err)
	}

	if lastScrape.Valid {
		t := time.Unix(lastScrape.Int64, 0).UTC()
		status.LastScrape = &t
	}

	return &status, nil
}
