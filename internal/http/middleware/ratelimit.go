package middleware

import (
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateConfig defines a token bucket: sustained rate per second and burst
// capacity.
type RateConfig struct {
	Rate  float64
	Burst float64
}

// RateLimiter applies per-client token buckets backed by Redis, with separate
// budgets for read and write traffic.
type RateLimiter struct {
	client    *redis.Client
	readCfg   RateConfig
	writeCfg  RateConfig
	luaScript *redis.Script
}

// NewRateLimiter constructs the limiter. A nil client disables limiting.
func NewRateLimiter(client *redis.Client, read RateConfig, write RateConfig) *RateLimiter {
	if client == nil {
		return nil
	}
	return &RateLimiter{
		client:    client,
		readCfg:   read,
		writeCfg:  write,
		luaScript: redis.NewScript(tokenBucketLua),
	}
}

// Middleware enforces the limits, answering 429 with a Retry-After hint when
// a bucket is exhausted.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	if l == nil || (l.readCfg.Rate <= 0 && l.writeCfg.Rate <= 0) {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cfg, scope := l.writeCfg, "write"
		if isReadMethod(r.Method) {
			cfg, scope = l.readCfg, "read"
		}
		if cfg.Rate <= 0 || cfg.Burst <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		allowed, retryAfter, err := l.allow(r.Context(), scope, clientIdentifier(r), cfg)
		if err != nil {
			http.Error(w, "rate limit error", http.StatusInternalServerError)
			return
		}
		if !allowed {
			if retryAfter > 0 {
				w.Header().Set("Retry-After", formatRetryAfter(retryAfter))
			}
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) allow(ctx context.Context, scope, identifier string, cfg RateConfig) (bool, time.Duration, error) {
	key := strings.Join([]string{"rl", scope, identifier}, ":")
	result, err := l.luaScript.Run(ctx, l.client, []string{key},
		time.Now().UnixMilli(), cfg.Rate, cfg.Burst, 1).Result()
	if err != nil {
		return false, 0, err
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 3 {
		return false, 0, errors.New("invalid redis response")
	}
	allowedInt, err := toInt64(values[0])
	if err != nil {
		return false, 0, err
	}
	waitSeconds, err := toFloat64(values[2])
	if err != nil {
		return false, 0, err
	}
	if allowedInt != 1 {
		return false, time.Duration(math.Ceil(waitSeconds*1000)) * time.Millisecond, nil
	}
	return true, 0, nil
}

func isReadMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

func clientIdentifier(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-Client-ID")); id != "" {
		return id
	}
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr == "" {
		return "anonymous"
	}
	return r.RemoteAddr
}

func formatRetryAfter(d time.Duration) string {
	seconds := int(math.Ceil(d.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}

func toFloat64(v interface{}) (float64, error) {
	switch val := v.(type) {
	case int64:
		return float64(val), nil
	case float64:
		return val, nil
	case string:
		return strconv.ParseFloat(val, 64)
	default:
		return 0, errors.New("unsupported type")
	}
}

func toInt64(v interface{}) (int64, error) {
	switch val := v.(type) {
	case int64:
		return val, nil
	case float64:
		return int64(val), nil
	case string:
		return strconv.ParseInt(val, 10, 64)
	default:
		return 0, errors.New("unsupported type")
	}
}

const tokenBucketLua = `
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local capacity = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])

if rate <= 0 then
  return {1, capacity, 0}
end

local state = redis.call('HMGET', key, 'tokens', 'timestamp')
local tokens = tonumber(state[1])
local last = tonumber(state[2])

if tokens == nil then
  tokens = capacity
end
if last == nil then
  last = now_ms
end

local delta = now_ms - last
if delta < 0 then
  delta = 0
end

tokens = math.min(capacity, tokens + (delta / 1000.0) * rate)

local allowed = 0
local wait = 0
if tokens >= requested then
  allowed = 1
  tokens = tokens - requested
else
  wait = (requested - tokens) / rate
end

redis.call('HSET', key, 'tokens', tokens, 'timestamp', now_ms)
redis.call('PEXPIRE', key, math.ceil((capacity / rate) * 2000))

return {allowed, tokens, tostring(wait)}
`
