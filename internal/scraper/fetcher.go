package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hotelchat/backend/pkg/circuitbreaker"
	"github.com/hotelchat/backend/pkg/retry"
)

// PageCache lets a fetcher reuse recently fetched HTML, typically after a
// partially failed run. A nil cache disables reuse.
type PageCache interface {
	GetPage(ctx context.Context, url string) (string, bool)
	SetPage(ctx context.Context, url, html string)
}

type FetcherConfig struct {
	Timeout   time.Duration
	Delay     time.Duration
	Retries   int
	UserAgent string
	Cache     PageCache
	Logger    *zap.Logger
}

// Fetcher retrieves single URLs over HTTP for one crawl session. It enforces
// the politeness delay between consecutive live fetches, retries transient
// network errors, and fails fast through a per-host circuit breaker once the
// target stops responding.
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	breaker   *circuitbreaker.CircuitBreaker
	cache     PageCache
	retries   int
	userAgent string
	logger    *zap.Logger
}

func NewFetcher(host string, cfg FetcherConfig) *Fetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "HotelChatBot/1.0"
	}

	limit := rate.Inf
	if cfg.Delay > 0 {
		limit = rate.Every(cfg.Delay)
	}

	return &Fetcher{
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, 1),
		breaker: circuitbreaker.New(host, circuitbreaker.Config{
			FailureThreshold: 5,
			OpenTimeout:      30 * time.Second,
			Logger:           cfg.Logger,
		}),
		cache:     cfg.Cache,
		retries:   cfg.Retries,
		userAgent: cfg.UserAgent,
		logger:    cfg.Logger,
	}
}

// Fetch returns the HTML body for url. Failures come back as *FetchError
// with the kind sentinel attached; none of them are fatal to a crawl.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if f.cache != nil {
		if html, ok := f.cache.GetPage(ctx, url); ok {
			f.logger.Debug("Page cache hit", zap.String("url", url))
			return html, nil
		}
	}

	var html string
	var fetchErr error

	// Only transport-level failures count against the breaker; a 404 or a
	// PDF link says nothing about the host's health.
	err := f.breaker.Execute(func() error {
		html, fetchErr = f.fetchWithRetry(ctx, url)
		if errors.Is(fetchErr, ErrNetwork) || errors.Is(fetchErr, ErrTimeout) {
			return fetchErr
		}
		return nil
	})
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		return "", &FetchError{URL: url, Kind: ErrNetwork, Err: err}
	}

	if fetchErr == nil && f.cache != nil {
		f.cache.SetPage(ctx, url, html)
	}

	return html, fetchErr
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, url string) (string, error) {
	policy := retry.Policy{
		Attempts: f.retries,
		Retryable: func(err error) bool {
			return errors.Is(err, ErrNetwork) || errors.Is(err, ErrTimeout)
		},
		Logger: f.logger,
	}

	return retry.DoWithResult(ctx, policy, func() (string, error) {
		return f.fetchOnce(ctx, url)
	})
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) (string, error) {
	// Politeness: wait out the configured delay since the previous live
	// request before touching the host again.
	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &FetchError{URL: url, Kind: ErrNetwork, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", &FetchError{URL: url, Kind: ErrTimeout, Err: err}
		}
		return "", &FetchError{URL: url, Kind: ErrNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{URL: url, Kind: ErrBadStatus, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !isHTMLContentType(contentType) {
		return "", &FetchError{URL: url, Kind: ErrNotHTML, Err: fmt.Errorf("content type %q", contentType)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &FetchError{URL: url, Kind: ErrNetwork, Err: err}
	}

	return string(body), nil
}

func isHTMLContentType(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
