package search

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_cache.go -package=mocks routine-advisor/internal/search Cache,Searcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"routine-advisor/internal/contextutil"
)

// ErrCacheMiss is returned by Cache.Get when no entry exists for a query.
var ErrCacheMiss = errors.New("search cache miss")

// Searcher runs a web search.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// Cache stores search results keyed by query.
type Cache interface {
	Get(ctx context.Context, query string) ([]Result, error)
	Set(ctx context.Context, query string, results []Result) error
}

// CachedSearcher serves repeated queries from a Cache and falls through to the
// wrapped Searcher on a miss or on any cache failure.
type CachedSearcher struct {
	next  Searcher
	cache Cache
}

// NewCachedSearcher wraps next with cache.
func NewCachedSearcher(next Searcher, cache Cache) *CachedSearcher {
	return &CachedSearcher{next: next, cache: cache}
}

// Search returns cached results when present, otherwise searches and stores non-empty results.
func (s *CachedSearcher) Search(ctx context.Context, query string) ([]Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	cached, err := s.cache.Get(ctx, query)
	if err == nil {
		logger.DebugContext(ctx, "search cache hit", "results", len(cached))
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		logger.WarnContext(ctx, "search cache read failed", "error", err)
	}

	results, err := s.next.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	if len(results) > 0 {
		if err := s.cache.Set(ctx, query, results); err != nil {
			logger.WarnContext(ctx, "search cache write failed", "error", err)
		}
	}

	return results, nil
}

// RedisCache implements Cache using Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to redisURL and verifies the connection.
func NewRedisCache(redisURL string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client, ttl: ttl}, nil
}

// Close closes the underlying Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Get loads cached results for query.
func (c *RedisCache) Get(ctx context.Context, query string) ([]Result, error) {
	data, err := c.client.Get(ctx, cacheKey(query)).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read search cache: %w", err)
	}

	var results []Result
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to parse cached results: %w", err)
	}
	return results, nil
}

// Set stores results for query with the cache TTL.
func (c *RedisCache) Set(ctx context.Context, query string, results []Result) error {
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(query), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write search cache: %w", err)
	}
	return nil
}

// cacheKey normalizes case and surrounding whitespace so trivially different queries share an entry.
func cacheKey(query string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(query), " "))
	sum := sha256.Sum256([]byte(normalized))
	return "search:" + hex.EncodeToString(sum[:])
}
