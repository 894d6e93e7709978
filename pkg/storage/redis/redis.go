package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

const (
	_defaultPoolSize    = 20
	_defaultMinIdleCons = 10
	_defaultPoolTimeout = 100 * time.Millisecond
)

// ErrNil is returned by GetVersioned for a missing key.
var ErrNil = goredis.Nil

// setIfNewerScript keeps a versioned value in a hash and refuses to go back in version.
var setIfNewerScript = goredis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'version')
if current and tonumber(current) >= tonumber(ARGV[1]) then
  return 0
end
redis.call('HSET', KEYS[1], 'version', ARGV[1], 'value', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

type Redis struct {
	client *goredis.Client

	db          int
	poolSize    int
	minIdleCons int
	poolTimeout time.Duration
}

func New(ctx context.Context, addr, password string, opts ...Option) (*Redis, error) {
	const op = "redis.New"

	r := &Redis{
		poolSize:    _defaultPoolSize,
		minIdleCons: _defaultMinIdleCons,
		poolTimeout: _defaultPoolTimeout,
	}

	for _, opt := range opts {
		opt(r)
	}

	if err := r.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.client = goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     password,
		DB:           r.db,
		PoolSize:     r.poolSize,
		MinIdleConns: r.minIdleCons,
		PoolTimeout:  r.poolTimeout,
	})

	if err := r.client.Ping(ctx).Err(); err != nil {
		_ = r.client.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	return r, nil
}

// SetIfNewer stores value only when version is greater than the stored version.
// It reports whether the value was written.
func (r *Redis) SetIfNewer(ctx context.Context, key string, version int64, value any, ttl time.Duration) (bool, error) {
	written, err := setIfNewerScript.Run(ctx, r.client, []string{key}, version, value, ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return written == 1, nil
}

// GetVersioned reads a value written by SetIfNewer.
func (r *Redis) GetVersioned(ctx context.Context, key string) (string, error) {
	val, err := r.client.HGet(ctx, key, "value").Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", ErrNil
		}
		return "", err
	}
	return val, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
