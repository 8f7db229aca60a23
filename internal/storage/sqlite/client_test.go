package sqlite

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hotelchat/backend/internal/storage/models"
	"github.com/hotelchat/backend/pkg/logger"
	"github.com/hotelchat/backend/pkg/utils"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	logger.InitNop()

	client, err := NewClient(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	require.NoError(t, client.InitSchema())
	return client
}

func sampleResult(sessionID, hotelID string) *models.SiteResult {
	started := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	return &models.SiteResult{
		SessionID: sessionID,
		HotelID:   hotelID,
		SeedURL:   "https://example.com",
		Status:    models.CrawlCompleted,
		Pages: []models.PageRecord{
			{
				URL:       "https://example.com",
				Title:     "Home",
				Content:   "Welcome to the hotel.",
				PageType:  models.PageTypeAbout,
				WordCount: 4,
				FetchedAt: started.Add(time.Second),
			},
			{
				URL:       "https://example.com/rooms",
				Title:     "Rooms",
				Content:   "Rooms with sea views.",
				PageType:  models.PageTypeRoom,
				WordCount: 4,
				FetchedAt: started.Add(3 * time.Second),
			},
		},
		Metadata: models.SiteMetadata{
			TotalWords: 8,
			PageTypes: map[models.PageType]int{
				models.PageTypeAbout: 1,
				models.PageTypeRoom:  1,
			},
			PagesScraped: 2,
		},
		Failures: []models.FetchFailure{
			{URL: "https://example.com/missing", Kind: "status", Reason: "status 404"},
		},
		StartedAt:  started,
		FinishedAt: started.Add(10 * time.Second),
	}
}

func TestSiteResultRoundTrip(t *testing.T) {
	client := newTestClient(t)

	saved := sampleResult("session-1", "hotel-1")
	require.NoError(t, client.SaveSiteResult(saved))

	loaded, err := client.LoadSiteResult("hotel-1")
	require.NoError(t, err)

	assert.Equal(t, saved.SessionID, loaded.SessionID)
	assert.Equal(t, saved.HotelID, loaded.HotelID)
	assert.Equal(t, saved.SeedURL, loaded.SeedURL)
	assert.Equal(t, saved.Status, loaded.Status)
	assert.Equal(t, saved.Metadata, loaded.Metadata)
	assert.Equal(t, saved.Pages, loaded.Pages)
	assert.Equal(t, saved.Failures, loaded.Failures)
	assert.Equal(t, saved.StartedAt, loaded.StartedAt)
	assert.Equal(t, saved.FinishedAt, loaded.FinishedAt)
}

func TestLoadSiteResultReturnsLatest(t *testing.T) {
	client := newTestClient(t)

	first := sampleResult("session-1", "hotel-1")
	require.NoError(t, client.SaveSiteResult(first))

	second := sampleResult("session-2", "hotel-1")
	second.FinishedAt = first.FinishedAt.Add(time.Hour)
	require.NoError(t, client.SaveSiteResult(second))

	loaded, err := client.LoadSiteResult("hotel-1")
	require.NoError(t, err)
	assert.Equal(t, "session-2", loaded.SessionID)
}

func TestLoadSiteResultUnknownHotel(t *testing.T) {
	client := newTestClient(t)

	_, err := client.LoadSiteResult("nobody")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSiteResultsAreIsolatedPerHotel(t *testing.T) {
	client := newTestClient(t)

	require.NoError(t, client.SaveSiteResult(sampleResult("session-a", "hotel-a")))
	require.NoError(t, client.SaveSiteResult(sampleResult("session-b", "hotel-b")))

	loaded, err := client.LoadSiteResult("hotel-a")
	require.NoError(t, err)
	assert.Equal(t, "session-a", loaded.SessionID)
}

func sampleChunks(ref string, n int) []models.KnowledgeChunk {
	chunks := make([]models.KnowledgeChunk, 0, n)
	for i := 0; i < n; i++ {
		chunks = append(chunks, models.KnowledgeChunk{
			ChunkID:          utils.ChunkID(ref, i),
			Text:             "chunk text",
			SourceType:       models.SourceTypeWeb,
			SourceRef:        ref,
			PageTypeOrOrigin: "room",
			Position:         i,
		})
	}
	return chunks
}

func TestSaveChunksRoundTrip(t *testing.T) {
	client := newTestClient(t)

	chunks := sampleChunks("https://example.com/rooms", 3)
	require.NoError(t, client.SaveChunks("hotel-1", chunks))

	loaded, err := client.GetChunks("hotel-1")
	require.NoError(t, err)
	assert.Equal(t, chunks, loaded)
}

func TestSaveChunksUpsertsByID(t *testing.T) {
	client := newTestClient(t)

	chunks := sampleChunks("https://example.com/rooms", 3)
	require.NoError(t, client.SaveChunks("hotel-1", chunks))

	chunks[1].Text = "updated text"
	require.NoError(t, client.SaveChunks("hotel-1", chunks))

	loaded, err := client.GetChunks("hotel-1")
	require.NoError(t, err)
	require.Len(t, loaded, 3, "re-saving identical IDs must not duplicate")
	assert.Equal(t, "updated text", loaded[1].Text)
}

func TestGetChunksOrderedBySourceAndPosition(t *testing.T) {
	client := newTestClient(t)

	require.NoError(t, client.SaveChunks("hotel-1", sampleChunks("https://example.com/b", 2)))
	require.NoError(t, client.SaveChunks("hotel-1", sampleChunks("https://example.com/a", 2)))

	loaded, err := client.GetChunks("hotel-1")
	require.NoError(t, err)
	require.Len(t, loaded, 4)

	assert.Equal(t, "https://example.com/a", loaded[0].SourceRef)
	assert.Equal(t, 0, loaded[0].Position)
	assert.Equal(t, 1, loaded[1].Position)
	assert.Equal(t, "https://example.com/b", loaded[2].SourceRef)
}

func TestHotelStatusLifecycle(t *testing.T) {
	client := newTestClient(t)

	_, err := client.GetHotelStatus("hotel-1")
	assert.True(t, errors.Is(err, ErrNotFound))

	at := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, client.RecordScrape("hotel-1", 12, at))

	status, err := client.GetHotelStatus("hotel-1")
	require.NoError(t, err)
	assert.Equal(t, 12, status.PagesScraped)
	assert.Equal(t, 0, status.DocumentsUploaded)
	require.NotNil(t, status.LastScrape)
	assert.Equal(t, at, *status.LastScrape)

	require.NoError(t, client.RecordDocumentUpload("hotel-1"))
	require.NoError(t, client.RecordDocumentUpload("hotel-1"))

	status, err = client.GetHotelStatus("hotel-1")
	require.NoError(t, err)
	assert.Equal(t, 2, status.DocumentsUploaded)
	assert.NotNil(t, status.LastScrape, "uploads must not clear the scrape timestamp")
}

func TestRecordDocumentUploadWithoutScrape(t *testing.T) {
	client := newTestClient(t)

	require.NoError(t, client.RecordDocumentUpload("hotel-2"))

	status, err := client.GetHotelStatus("hotel-2")
	require.NoError(t, err)
	assert.Equal(t, 1, status.DocumentsUploaded)
	assert.Nil(t, status.LastScrape)
}

func TestSaveDocumentUpsert(t *testing.T) {
	client := newTestClient(t)

	record := &models.DocumentRecord{
		SourceName: "rates.xlsx",
		SourceKind: models.SourceKindSpreadsheet,
		Segments: []models.DocumentSegment{
			{Index: 0, Label: "Rooms", Text: "Rooms: Deluxe | 180"},
		},
	}

	id := utils.HashString("hotel-1/rates.xlsx")
	require.NoError(t, client.SaveDocument(id, "hotel-1", record, "rate card", "proj-9"))

	// re-uploading the same file replaces the row instead of failing
	record.Segments = append(record.Segments, models.DocumentSegment{Index: 1, Label: "Seasons", Text: "Seasons: Summer | 200"})
	require.NoError(t, client.SaveDocument(id, "hotel-1", record, "rate card v2", "proj-9"))
}
