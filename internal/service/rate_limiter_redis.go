package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript guarda un sorted set por clave con el timestamp de
// cada intento aceptado. Devuelve 1 si el intento entra en la ventana.
const slidingWindowScript = `
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", now - window)
if redis.call("ZCARD", KEYS[1]) >= tonumber(ARGV[3]) then
  return 0
end
redis.call("ZADD", KEYS[1], now, ARGV[4])
redis.call("PEXPIRE", KEYS[1], window)
return 1
`

const rateLimitKeyPrefix = "auth:ratelimit:"

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisRateLimiter struct {
	client  redisEvaler
	window  time.Duration
	max     int
	timeout time.Duration
	now     func() time.Time
}

// NewRedisRateLimiter comparte la ventana deslizante entre instancias. Si
// redis falla la solicitud pasa.
func NewRedisRateLimiter(client *redis.Client, window time.Duration, max int) RateLimiter {
	if client == nil {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisRateLimiter{
		client:  client,
		window:  window,
		max:     max,
		timeout: 500 * time.Millisecond,
		now:     time.Now,
	}
}

func (l *redisRateLimiter) Allow(ctx context.Context, key string) error {
	if l == nil || l.client == nil {
		return nil
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return ErrRateLimited
	}
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	allowed, err := l.client.Eval(ctx, slidingWindowScript,
		[]string{rateLimitKeyPrefix + key},
		l.now().UnixMilli(), l.window.Milliseconds(), l.max, uuid.NewString(),
	).Int()
	if err != nil {
		return nil
	}
	if allowed == 0 {
		return ErrRateLimited
	}
	return nil
}
