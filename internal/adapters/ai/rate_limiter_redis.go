package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"finsight/pkg/errors"
)

// Token bucket shared by all replicas.
// KEYS[1] bucket key, ARGV[1] rate per second, ARGV[2] burst, ARGV[3] now in seconds.
// Returns 0 when a token was taken, otherwise the milliseconds to wait.
const luaTokenBucket = `
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local data = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens = tonumber(data[1]) or burst
local ts = tonumber(data[2]) or now

tokens = math.min(burst, tokens + math.max(0, now - ts) * rate)

local wait = 0
if tokens >= 1 then
	tokens = tokens - 1
else
	wait = math.ceil((1 - tokens) / rate * 1000)
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'ts', now)
redis.call('EXPIRE', KEYS[1], 3600)
return wait
`

// RedisLimiter is a distributed token bucket keyed per provider
type RedisLimiter struct {
	client *redis.Client
	key    string
	rate   float64
	burst  int
	script *redis.Script
}

// NewRedisLimiter allows reqPerMinute calls across every replica sharing client
func NewRedisLimiter(client *redis.Client, provider ProviderName, reqPerMinute float64, burst int) *RedisLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RedisLimiter{
		client: client,
		key:    fmt.Sprintf("rate_limit:llm:%s", provider),
		rate:   reqPerMinute / 60.0,
		burst:  burst,
		script: redis.NewScript(luaTokenBucket),
	}
}

// Wait polls the shared bucket, sleeping for the delay the script reports
func (l *RedisLimiter) Wait(ctx context.Context) error {
	for {
		now := float64(time.Now().UnixNano()) / float64(time.Second)
		waitMs, err := l.script.Run(ctx, l.client, []string{l.key}, l.rate, l.burst, now).Int64()
		if err != nil {
			if ctx.Err() != nil {
				return errors.Wrap(errors.ErrRateLimitExceeded, ctx.Err().Error())
			}
			return errors.Wrap(errors.ErrUnavailable, "redis rate limiter: "+err.Error())
		}
		if waitMs == 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return errors.Wrap(errors.ErrRateLimitExceeded, ctx.Err().Error())
		case <-time.After(time.Duration(waitMs) * time.Millisecond):
		}
	}
}

// Reset clears the bucket, used by tests
func (l *RedisLimiter) Reset(ctx context.Context) error {
	return l.client.Del(ctx, l.key).Err()
}
