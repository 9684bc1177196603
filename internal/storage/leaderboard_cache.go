package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/copytrade-backend/internal/models"
)

// LeaderboardCache keeps recently served leaderboard pages in Redis. Pages
// expire on a short TTL instead of being invalidated on writes; a freshly
// tracked address shows up within one TTL window.
type LeaderboardCache struct {
	cache *RedisCache
	ttl   time.Duration
}

// NewLeaderboardCache creates a leaderboard page cache
func NewLeaderboardCache(cache *RedisCache, ttl time.Duration) *LeaderboardCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &LeaderboardCache{cache: cache, ttl: ttl}
}

// cachedPage is the stored shape of one leaderboard page
type cachedPage struct {
	Profiles []*models.AddressProfile `json:"profiles"`
	Total    int                      `json:"total"`
}

// pageKey derives a stable cache key from the whole filter
func pageKey(filter ProfileFilter) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%+v", filter)
	return fmt.Sprintf("leaderboard:%x", h.Sum64())
}

// GetPage returns a cached page, or (nil, 0, nil) when absent
func (c *LeaderboardCache) GetPage(ctx context.Context, filter ProfileFilter) ([]*models.AddressProfile, int, error) {
	data, err := c.cache.Client().Get(ctx, pageKey(filter)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get leaderboard page: %w", err)
	}

	var page cachedPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal leaderboard page: %w", err)
	}

	return page.Profiles, page.Total, nil
}

// PutPage stores one leaderboard page
func (c *LeaderboardCache) PutPage(ctx context.Context, filter ProfileFilter, profiles []*models.AddressProfile, total int) error {
	data, err := json.Marshal(cachedPage{Profiles: profiles, Total: total})
	if err != nil {
		return fmt.Errorf("failed to marshal leaderboard page: %w", err)
	}

	if err := c.cache.Client().Set(ctx, pageKey(filter), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set leaderboard page: %w", err)
	}

	return nil
}
