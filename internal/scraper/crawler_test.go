package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hotelchat/backend/internal/extract"
	"github.com/hotelchat/backend/internal/storage/models"
)

func testPage(title, body string, links ...string) string {
	var anchors strings.Builder
	for _, link := range links {
		fmt.Fprintf(&anchors, `<a href="%s">%s</a>`, link, link)
	}
	return fmt.Sprintf(`<html><head><title>%s</title></head>
		<body><nav><a href="/">Home</a></nav>%s<main>%s</main>
		<footer>Copyright Seaside Grand Hotel</footer></body></html>`,
		title, anchors.String(), body)
}

func newTestSite(t *testing.T) *httptest.Server {
	t.Helper()

	roomsBody := `Our rooms and suites offer sea views, king beds and private
		balconies. Every room includes complimentary breakfast for two guests
		and late check-out on request throughout the year.`
	diningBody := `The hotel restaurant serves a seasonal menu with fresh local
		seafood. Breakfast runs from seven until eleven and the rooftop bar
		opens every evening with cocktails and small plates.`
	homeBody := `Welcome to the Seaside Grand Hotel, a family run house on the
		promenade since nineteen twenty. Our guests enjoy warm service, sea
		air and the best location in town for exploring the old harbour.`

	mux := http.NewServeMux()
	serve := func(path, html string) {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != path {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(html))
		})
	}

	serve("/", testPage("Seaside Grand Hotel", homeBody, "/rooms", "/dining"))
	serve("/rooms", testPage("Rooms & Suites", roomsBody, "/", "/dining"))
	serve("/dining", testPage("Dining", diningBody, "/", "/rooms"))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestCrawler(srvURL string, delay time.Duration) *Crawler {
	fetcher := NewFetcher(srvURL, FetcherConfig{
		Timeout: 2 * time.Second,
		Delay:   delay,
		Retries: 1,
	})
	processor := extract.NewProcessor(5, 0.004)
	return NewCrawler(fetcher, processor, nil)
}

func TestCrawlCollectsLinkedPages(t *testing.T) {
	srv := newTestSite(t)
	c := newTestCrawler(srv.URL, 0)

	result, err := c.Crawl(context.Background(), srv.URL, Options{MaxPages: 20})
	require.NoError(t, err)

	assert.Equal(t, models.CrawlCompleted, result.Status)
	assert.Len(t, result.Pages, 3, "three pages reachable, budget twenty")
	assert.Empty(t, result.Failures)

	seen := make(map[string]bool)
	for _, page := range result.Pages {
		assert.False(t, seen[page.URL], "duplicate page %s", page.URL)
		seen[page.URL] = true
		assert.NotEmpty(t, page.Content)
		assert.Greater(t, page.WordCount, 0)
	}
}

func TestCrawlRespectsPageBudget(t *testing.T) {
	srv := newTestSite(t)
	c := newTestCrawler(srv.URL, 0)

	result, err := c.Crawl(context.Background(), srv.URL, Options{MaxPages: 2})
	require.NoError(t, err)

	assert.Equal(t, models.CrawlCompleted, result.Status)
	assert.Len(t, result.Pages, 2)
}

func TestCrawlClassifiesByPath(t *testing.T) {
	srv := newTestSite(t)
	c := newTestCrawler(srv.URL, 0)

	result, err := c.Crawl(context.Background(), srv.URL, Options{MaxPages: 20})
	require.NoError(t, err)

	types := make(map[string]models.PageType)
	for _, page := range result.Pages {
		types[page.URL] = page.PageType
	}

	assert.Equal(t, models.PageTypeRoom, types[srv.URL+"/rooms"])
	assert.Equal(t, models.PageTypeDining, types[srv.URL+"/dining"])
}

func TestCrawlMetadataAggregates(t *testing.T) {
	srv := newTestSite(t)
	c := newTestCrawler(srv.URL, 0)

	result, err := c.Crawl(context.Background(), srv.URL, Options{MaxPages: 20})
	require.NoError(t, err)

	assert.Equal(t, len(result.Pages), result.Metadata.PagesScraped)

	wantWords := 0
	for _, page := range result.Pages {
		wantWords += page.WordCount
	}
	assert.Equal(t, wantWords, result.Metadata.TotalWords)

	typeSum := 0
	for _, n := range result.Metadata.PageTypes {
		typeSum += n
	}
	assert.Equal(t, len(result.Pages), typeSum, "type counts must sum to pages scraped")
}

func TestCrawlContinuesPastPageFailures(t *testing.T) {
	mux := http.NewServeMux()
	body := `Welcome to our small hotel with warm rooms, friendly staff and a
		quiet garden. We have welcomed travellers here for over forty years.`
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(testPage("Home", body, "/missing", "/about")))
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(testPage("About", body)))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newTestCrawler(srv.URL, 0)

	result, err := c.Crawl(context.Background(), srv.URL, Options{MaxPages: 20})
	require.NoError(t, err)

	assert.Equal(t, models.CrawlCompleted, result.Status)
	assert.Len(t, result.Pages, 2)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "status", result.Failures[0].Kind)
	assert.Contains(t, result.Failures[0].URL, "/missing")
}

func TestCrawlAbortsOnUnreachableSeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	seed := srv.URL
	srv.Close()

	c := newTestCrawler(seed, 0)

	result, err := c.Crawl(context.Background(), seed, Options{MaxPages: 20})
	require.NoError(t, err, "an aborted session is data, not an error")

	assert.Equal(t, models.CrawlAborted, result.Status)
	assert.Empty(t, result.Pages)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "unreachable_seed", result.Failures[0].Kind)
}

func TestCrawlSeedFailureOnlyAbortsFirstFetch(t *testing.T) {
	// a later fetch failure of the same kind must not abort
	srv := newTestSite(t)
	c := newTestCrawler(srv.URL, 0)

	result, err := c.Crawl(context.Background(), srv.URL, Options{MaxPages: 20})
	require.NoError(t, err)
	assert.Equal(t, models.CrawlCompleted, result.Status)
}

func TestCrawlHonorsCancellation(t *testing.T) {
	srv := newTestSite(t)
	c := newTestCrawler(srv.URL, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := c.Crawl(ctx, srv.URL, Options{MaxPages: 20})
	require.NoError(t, err)

	assert.Equal(t, models.CrawlCompleted, result.Status, "partial results are kept")
	assert.Empty(t, result.Pages)
}

func TestCrawlReportsProgress(t *testing.T) {
	srv := newTestSite(t)
	c := newTestCrawler(srv.URL, 0)

	var calls []int
	observer := func(fetched, budget int, url string) {
		calls = append(calls, fetched)
		assert.Equal(t, 20, budget)
		assert.NotEmpty(t, url)
	}

	result, err := c.Crawl(context.Background(), srv.URL, Options{MaxPages: 20, Observer: observer})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, calls)
	assert.Len(t, result.Pages, 3)
}

func TestCrawlPolitenessBetweenFetches(t *testing.T) {
	srv := newTestSite(t)

	delay := 50 * time.Millisecond
	c := newTestCrawler(srv.URL, delay)

	start := time.Now()
	result, err := c.Crawl(context.Background(), srv.URL, Options{MaxPages: 3})
	require.NoError(t, err)
	elapsed := time.Since(start)

	require.Len(t, result.Pages, 3)
	// first fetch is free, the remaining two wait out the delay each
	assert.GreaterOrEqual(t, elapsed, 2*delay)
}
