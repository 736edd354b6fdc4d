package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SearchCache = (*SearchCache)(nil)

const (
	searchPrefix        = "kb:search:"
	searchGenerationKey = "kb:search:generation"

	// DefaultSearchTTL bounds how long a cached result may outlive its generation
	DefaultSearchTTL = 5 * time.Minute
)

// SearchCache implements driven.SearchCache using Redis.
// Entries are namespaced by a generation counter; Invalidate bumps the
// counter so older entries become unreachable and expire by TTL.
type SearchCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSearchCache creates a Redis-backed SearchCache. A ttl <= 0 uses DefaultSearchTTL.
func NewSearchCache(client *redis.Client, ttl time.Duration) *SearchCache {
	if ttl <= 0 {
		ttl = DefaultSearchTTL
	}
	return &SearchCache{client: client, ttl: ttl}
}

// Generation returns the current corpus generation
func (c *SearchCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, searchGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache generation: %w", err)
	}
	return gen, nil
}

func entryKey(gen int64, key string) string {
	return searchPrefix + strconv.FormatInt(gen, 10) + ":" + key
}

// Get returns the result cached for key in generation gen or domain.ErrNotFound
func (c *SearchCache) Get(ctx context.Context, gen int64, key string) (*domain.SearchResult, error) {
	data, err := c.client.Get(ctx, entryKey(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached search: %w", err)
	}

	var result domain.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached search: %w", err)
	}
	return &result, nil
}

// Set stores result under key in generation gen. A result computed
// before an Invalidate lands in the old generation and is never read.
func (c *SearchCache) Set(ctx context.Context, gen int64, key string, result *domain.SearchResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal search result: %w", err)
	}

	if err := c.client.Set(ctx, entryKey(gen, key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache search: %w", err)
	}
	return nil
}

// Invalidate makes every cached result unreachable
func (c *SearchCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, searchGenerationKey).Err(); err != nil {
		return fmt.Errorf("failed to bump cache generation: %w", err)
	}
	return nil
}

// Ping checks Redis connectivity
func (c *SearchCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
