package geocache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/example/localmart/internal/discovery/domain"
	"github.com/example/localmart/internal/discovery/geo"
)

const defaultKeyPrefix = "geocode:zip:"

// RedisLocationCache stores resolved postal code locations in Redis with a
// TTL. Postal code geography is effectively static, so a long TTL is safe;
// the TTL mainly bounds memory for codes that stop being queried.
type RedisLocationCache struct {
	client    redis.Cmdable
	keyPrefix string
	ttl       time.Duration
}

// NewRedisLocationCache constructs the cache helper.
func NewRedisLocationCache(client redis.Cmdable, prefix string, ttl time.Duration) *RedisLocationCache {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisLocationCache{client: client, keyPrefix: prefix, ttl: ttl}
}

// Get returns the cached location for a postal code, if present.
func (c *RedisLocationCache) Get(ctx context.Context, postalCode string) (domain.ResolvedLocation, bool, error) {
	payload, err := c.client.Get(ctx, c.keyPrefix+postalCode).Bytes()
	if err == redis.Nil {
		return domain.ResolvedLocation{}, false, nil
	}
	if err != nil {
		return domain.ResolvedLocation{}, false, fmt.Errorf("redis get: %w", err)
	}
	var loc domain.ResolvedLocation
	if err := json.Unmarshal(payload, &loc); err != nil {
		return domain.ResolvedLocation{}, false, fmt.Errorf("decode cached location: %w", err)
	}
	return loc, true, nil
}

// Put stores a resolved location under its postal code.
func (c *RedisLocationCache) Put(ctx context.Context, postalCode string, loc domain.ResolvedLocation) error {
	payload, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("encode location: %w", err)
	}
	if err := c.client.Set(ctx, c.keyPrefix+postalCode, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// CachedGeocoder layers the Redis cache above another geocoder. Cache
// failures degrade to a direct lookup rather than failing the resolution.
type CachedGeocoder struct {
	next   domain.Geocoder
	cache  *RedisLocationCache
	logger *zap.Logger
}

// NewCachedGeocoder wraps next with the cache.
func NewCachedGeocoder(next domain.Geocoder, cache *RedisLocationCache, logger *zap.Logger) *CachedGeocoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedGeocoder{next: next, cache: cache, logger: logger}
}

// Resolve satisfies domain.Geocoder. The cache key is the normalized code so
// differently formatted inputs share one entry.
func (c *CachedGeocoder) Resolve(ctx context.Context, postalCode string) (domain.ResolvedLocation, error) {
	code, err := geo.NormalizePostalCode(postalCode)
	if err != nil {
		return domain.ResolvedLocation{}, err
	}

	if loc, ok, err := c.cache.Get(ctx, code); err == nil && ok {
		return loc, nil
	} else if err != nil {
		c.logger.Warn("geocode cache read failed", zap.Error(err))
	}

	loc, err := c.next.Resolve(ctx, code)
	if err != nil {
		return domain.ResolvedLocation{}, err
	}

	if err := c.cache.Put(ctx, loc.PostalCode, loc); err != nil {
		c.logger.Warn("geocode cache write failed", zap.Error(err))
	}
	return loc, nil
}
