package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"

	"github.com/FacundoMartinezR/TikTokFinder/internal/metrics"
	"github.com/FacundoMartinezR/TikTokFinder/internal/middleware"
	"github.com/FacundoMartinezR/TikTokFinder/internal/model"
)

// poolKey is versioned so a change to the record shape never reads stale pools.
const poolKey = "pool:v1"

// CacheTTLs are the lifetimes of each cached kind.
type CacheTTLs struct {
	Pool   time.Duration
	Sample time.Duration
	User   time.Duration
}

// DefaultCacheTTLs are used for any zero TTL.
var DefaultCacheTTLs = CacheTTLs{
	Pool:   10 * time.Minute,
	Sample: 30 * time.Minute,
	User:   time.Minute,
}

// localSessionEntries bounds the in-process store per kind.
const localSessionEntries = 10_000

// Cache kinds, used as metric labels and to pick the in-process store.
const (
	kindPool   = "pool"
	kindSample = "sample"
	kindUser   = "user"
)

// CacheService provides a cache-aside layer for the preview pool,
// per-session samples and user profiles. Entries live in Redis when it is
// configured and in an in-process expiring LRU otherwise, so a session keeps
// its sample on a single instance without Redis.
type CacheService struct {
	rdb   *redis.Client
	ttls  CacheTTLs
	local map[string]*expirable.LRU[string, []byte]
}

// NewCacheService creates a new CacheService. redisURL may be a redis:// URL
// or a bare host:port. If it is empty or the connection fails, entries are
// kept in process.
func NewCacheService(redisURL string, ttls CacheTTLs) *CacheService {
	if redisURL == "" {
		middleware.Logger.Info().Msg("redis: no URL configured, using in-process cache")
		return NewCacheServiceWithClient(nil, ttls)
	}

	opts, err := redisOptions(redisURL)
	if err != nil {
		middleware.Logger.Warn().Err(err).Msg("redis: invalid URL, using in-process cache")
		return NewCacheServiceWithClient(nil, ttls)
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		middleware.Logger.Warn().Err(err).Msg("redis: connection failed, using in-process cache")
		_ = rdb.Close()
		return NewCacheServiceWithClient(nil, ttls)
	}

	middleware.Logger.Info().Msg("redis: connected, caching enabled")
	return NewCacheServiceWithClient(rdb, ttls)
}

// NewCacheServiceWithClient wraps an existing client. A nil rdb selects the
// in-process store.
func NewCacheServiceWithClient(rdb *redis.Client, ttls CacheTTLs) *CacheService {
	ttls = ttls.withDefaults()
	c := &CacheService{rdb: rdb, ttls: ttls}
	if rdb == nil {
		c.local = map[string]*expirable.LRU[string, []byte]{
			kindPool:   expirable.NewLRU[string, []byte](1, nil, ttls.Pool),
			kindSample: expirable.NewLRU[string, []byte](localSessionEntries, nil, ttls.Sample),
			kindUser:   expirable.NewLRU[string, []byte](localSessionEntries, nil, ttls.User),
		}
	}
	return c
}

func redisOptions(raw string) (*redis.Options, error) {
	if strings.Contains(raw, "://") {
		return redis.ParseURL(raw)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("empty redis address")
	}
	return &redis.Options{Addr: strings.TrimSpace(raw)}, nil
}

func (t CacheTTLs) withDefaults() CacheTTLs {
	if t.Pool <= 0 {
		t.Pool = DefaultCacheTTLs.Pool
	}
	if t.Sample <= 0 {
		t.Sample = DefaultCacheTTLs.Sample
	}
	if t.User <= 0 {
		t.User = DefaultCacheTTLs.User
	}
	return t
}

// Client returns the underlying Redis client (for health checks). May be nil.
func (c *CacheService) Client() *redis.Client {
	if c == nil {
		return nil
	}
	return c.rdb
}

// GetPool returns the cached preview pool.
func (c *CacheService) GetPool(ctx context.Context) ([]model.Influencer, bool) {
	var pool []model.Influencer
	ok := c.getJSON(ctx, kindPool, poolKey, &pool)
	return pool, ok
}

// SetPool caches the preview pool.
func (c *CacheService) SetPool(ctx context.Context, pool []model.Influencer) error {
	return c.setJSON(ctx, kindPool, poolKey, pool)
}

// GetSample returns the session's cached preview sample.
func (c *CacheService) GetSample(ctx context.Context, sessionKey string) ([]model.Influencer, bool) {
	if sessionKey == "" {
		return nil, false
	}
	var s []model.Influencer
	ok := c.getJSON(ctx, kindSample, sampleKey(sessionKey), &s)
	return s, ok
}

// SetSample caches the session's preview sample.
func (c *CacheService) SetSample(ctx context.Context, sessionKey string, s []model.Influencer) error {
	if sessionKey == "" {
		return nil
	}
	return c.setJSON(ctx, kindSample, sampleKey(sessionKey), s)
}

// GetUser returns the cached user for a session.
func (c *CacheService) GetUser(ctx context.Context, sessionKey string) (*model.User, bool) {
	if sessionKey == "" {
		return nil, false
	}
	var u model.User
	if !c.getJSON(ctx, kindUser, userKey(sessionKey), &u) {
		return nil, false
	}
	return &u, true
}

// SetUser caches the user for a session.
func (c *CacheService) SetUser(ctx context.Context, sessionKey string, u *model.User) error {
	if u == nil || sessionKey == "" {
		return nil
	}
	return c.setJSON(ctx, kindUser, userKey(sessionKey), u)
}

// InvalidateSession removes the cached user and sample of a session (called
// after subscription changes and logout).
func (c *CacheService) InvalidateSession(ctx context.Context, sessionKey string) error {
	if c == nil || sessionKey == "" {
		return nil
	}
	if c.rdb == nil {
		c.local[kindUser].Remove(userKey(sessionKey))
		c.local[kindSample].Remove(sampleKey(sessionKey))
		return nil
	}
	return c.rdb.Del(ctx, userKey(sessionKey), sampleKey(sessionKey)).Err()
}

// Close shuts down the Redis connection, or empties the in-process store.
func (c *CacheService) Close() error {
	if c == nil {
		return nil
	}
	if c.rdb == nil {
		for _, lru := range c.local {
			lru.Purge()
		}
		return nil
	}
	return c.rdb.Close()
}

// getJSON decodes the entry at key into dst. Entries are stored as JSON in
// both backends so callers never share memory with the cache.
func (c *CacheService) getJSON(ctx context.Context, kind, key string, dst any) bool {
	if c == nil {
		return false
	}
	data, err := c.get(ctx, kind, key)
	if errors.Is(err, redis.Nil) {
		metrics.Metrics.CacheMisses.WithLabelValues(kind).Inc()
		return false
	}
	if err != nil {
		middleware.Logger.Warn().Err(err).Str("kind", kind).Msg("cache: get failed")
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		metrics.Metrics.CacheMisses.WithLabelValues(kind).Inc()
		middleware.Logger.Warn().Err(err).Str("kind", kind).Msg("cache: corrupt entry")
		return false
	}
	metrics.Metrics.CacheHits.WithLabelValues(kind).Inc()
	return true
}

// get reads raw bytes. A missing entry is reported as redis.Nil by either backend.
func (c *CacheService) get(ctx context.Context, kind, key string) ([]byte, error) {
	if c.rdb == nil {
		data, ok := c.local[kind].Get(key)
		if !ok {
			return nil, redis.Nil
		}
		return data, nil
	}
	return c.rdb.Get(ctx, key).Bytes()
}

func (c *CacheService) setJSON(ctx context.Context, kind, key string, v any) error {
	if c == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if c.rdb == nil {
		c.local[kind].Add(key, b)
		return nil
	}
	return c.rdb.Set(ctx, key, b, c.ttl(kind)).Err()
}

func (c *CacheService) ttl(kind string) time.Duration {
	switch kind {
	case kindPool:
		return c.ttls.Pool
	case kindSample:
		return c.ttls.Sample
	default:
		return c.ttls.User
	}
}

func sampleKey(sessionKey string) string {
	return fmt.Sprintf("sample:%s", sessionKey)
}

func userKey(sessionKey string) string {
	return fmt.Sprintf("user:%s", sessionKey)
}
