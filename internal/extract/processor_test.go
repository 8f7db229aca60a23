package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hotelchat/backend/internal/storage/models"
)

func TestProcessKeepsContentPage(t *testing.T) {
	html := `<html><head><title>Rooms</title></head><body>
		<p>Our rooms and suites offer sea views, king beds and balconies for
		every guest visiting the hotel throughout the whole year.</p>
	</body></html>`

	p := NewProcessor(5, 0.004)
	fetchedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	record, keep, err := p.Process("https://example.com/rooms", html, fetchedAt)
	require.NoError(t, err)
	require.True(t, keep)

	assert.Equal(t, "https://example.com/rooms", record.URL)
	assert.Equal(t, "Rooms", record.Title)
	assert.Equal(t, models.PageTypeRoom, record.PageType)
	assert.Equal(t, fetchedAt, record.FetchedAt)
	assert.Greater(t, record.WordCount, 5)
	assert.NotEmpty(t, record.Content)
}

func TestProcessDropsLowValuePage(t *testing.T) {
	html := `<html><body><p>Book now.</p></body></html>`

	p := NewProcessor(50, 0.004)

	_, keep, err := p.Process("https://example.com/promo", html, time.Now())
	require.NoError(t, err)
	assert.False(t, keep)
}

func TestProcessDropsEmptyPage(t *testing.T) {
	html := `<html><body><script>init();</script></body></html>`

	p := NewProcessor(1, 0.004)

	_, keep, err := p.Process("https://example.com/empty", html, time.Now())
	require.NoError(t, err)
	assert.False(t, keep)
}
