package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hotelchat/backend/internal/metrics"
	"github.com/hotelchat/backend/pkg/logger"
	"github.com/hotelchat/backend/pkg/utils"
)

// Client caches fetched page HTML so a re-crawl shortly after a partial run
// can skip refetching pages the site already served. The cache is an
// optimization only; crawls run fine without it.
type Client struct {
	client  *redis.Client
	pageTTL time.Duration
}

func NewClient(host string, port int, password string, db int, pageTTL time.Duration) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client, pageTTL: pageTTL}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// GetPage returns cached HTML for url, if present.
func (c *Client) GetPage(ctx context.Context, url string) (string, bool) {
	html, err := c.client.Get(ctx, pageKey(url)).Result()
	if err == redis.Nil {
		metrics.CacheMisses.Inc()
		return "", false
	}
	if err != nil {
		logger.Warn("Page cache read failed", zap.String("url", url), zap.Error(err))
		metrics.CacheMisses.Inc()
		return "", false
	}

	metrics.CacheHits.Inc()
	return html, true
}

// SetPage stores fetched HTML with the configured TTL. Failures are logged
// and swallowed: caching never fails a crawl.
func (c *Client) SetPage(ctx context.Context, url, html string) {
	if err := c.client.Set(ctx, pageKey(url), html, c.pageTTL).Err(); err != nil {
		logger.Warn("Page cache write failed", zap.String("url", url), zap.Error(err))
	}
}

// InvalidateHotelPages drops every cached page. A full flush is acceptable
// because entries are short-lived and keyed by URL hash, not hotel.
func (c *Client) InvalidateHotelPages(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "page:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warn("Failed to delete cache key", zap.Error(err))
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	logger.Info("Page cache invalidated")
	return nil
}

func pageKey(url string) string {
	return fmt.Sprintf("page:%s", utils.HashString(url))
}
