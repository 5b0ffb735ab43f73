// Package ratelimit throttles API clients with a token bucket kept in Redis.
package ratelimit

import (
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"clinic-booking/internal/configs"
	"clinic-booking/internal/logging"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// bucketScript refills the bucket by whole intervals, then takes one token if any is left.
// It answers {allowed, remaining tokens, milliseconds until the next token}.
var bucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local interval_ms = tonumber(ARGV[3])
local ttl_seconds = tonumber(ARGV[4])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])
if tokens == nil or last_refill == nil then
	tokens = capacity
	last_refill = now_ms
end

local elapsed = math.max(0, now_ms - last_refill)
local intervals = math.floor(elapsed / interval_ms)
if intervals > 0 then
	tokens = math.min(capacity, tokens + intervals)
	last_refill = last_refill + intervals * interval_ms
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
	allowed = 1
	tokens = tokens - 1
else
	retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)
return { allowed, tokens, retry_after_ms }
`)

// NewClient creates the Redis client backing the limiter.
func NewClient(options configs.RedisOptions) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     options.Addr,
		Password: options.Password,
		DB:       options.DB,
	})
}

type limiter struct {
	config configs.RateLimit
	client *redis.Client
	logger *zap.Logger
	now    func() time.Time
}

// Middleware limits every client IP to config.Capacity requests, refilling one token every
// config.RefillEvery. Requests pass through when the limiter is disabled or Redis fails.
func Middleware(config configs.RateLimit, client *redis.Client, logger *zap.Logger) func(next http.Handler) http.Handler {
	return newLimiter(config, client, logger, time.Now).handler
}

func newLimiter(config configs.RateLimit, client *redis.Client, logger *zap.Logger, now func() time.Time) *limiter {
	return &limiter{config: config, client: client, logger: logger, now: now}
}

// key identifies the bucket of the request client.
func (l *limiter) key(r *http.Request) string {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	if ip == "" {
		ip = "unknown"
	}
	return strings.Join([]string{l.config.KeyPrefix, "ip", ip}, ":")
}

func (l *limiter) ttlSeconds() int64 {
	ttl := time.Duration(l.config.Capacity) * l.config.RefillEvery
	return int64(math.Ceil(ttl.Seconds())) + 1
}

func (l *limiter) handler(next http.Handler) http.Handler {
	if !l.config.Enabled || l.client == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := l.key(r)
		values, err := bucketScript.Run(r.Context(), l.client, []string{key},
			l.now().UnixMilli(), l.config.Capacity, l.config.RefillEvery.Milliseconds(), l.ttlSeconds()).Int64Slice()
		if err != nil || len(values) != 3 {
			logging.ForRequest(l.logger, r).Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.config.Capacity))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(values[1], 10))
		if values[0] == 1 {
			next.ServeHTTP(w, r)
			return
		}
		seconds := int(math.Ceil(float64(values[2]) / 1000))
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"kind":   "too_many_requests",
			"detail": fmt.Sprintf("rate limit exceeded, retry in %d seconds", seconds),
		})
	})
}
