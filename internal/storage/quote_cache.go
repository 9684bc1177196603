package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/copytrade-backend/internal/provider"
)

// QuoteCache keeps recent token quotes in Redis so the trigger loop and the
// API share one price view instead of hammering the market provider
type QuoteCache struct {
	cache *RedisCache
	ttl   time.Duration
}

// NewQuoteCache creates a quote cache with the given freshness bound
func NewQuoteCache(cache *RedisCache, ttl time.Duration) *QuoteCache {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &QuoteCache{cache: cache, ttl: ttl}
}

func quoteKey(tokenAddress string) string {
	return "quote:" + tokenAddress
}

// Get returns the cached quote for a token, or nil when absent or expired
func (c *QuoteCache) Get(ctx context.Context, tokenAddress string) (*provider.Quote, error) {
	raw, err := c.cache.Get(ctx, quoteKey(tokenAddress))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached quote: %w", err)
	}

	var quote provider.Quote
	if err := json.Unmarshal([]byte(raw), &quote); err != nil {
		return nil, fmt.Errorf("failed to decode cached quote: %w", err)
	}
	return &quote, nil
}

// Put stores a quote under the cache TTL
func (c *QuoteCache) Put(ctx context.Context, quote *provider.Quote) error {
	raw, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("failed to encode quote: %w", err)
	}
	return c.cache.Set(ctx, quoteKey(quote.TokenAddress), raw, c.ttl)
}
