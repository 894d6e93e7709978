package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"salesnotifier/internal/entity"
	"salesnotifier/pkg/cache"
	"salesnotifier/pkg/storage/redis"

	"github.com/google/uuid"
)

const (
	_defaultCacheTTL = 5 * time.Minute
	_cacheKeyPrefix  = "notification"

	// Above any UpdatedAt in microseconds, so nothing can be written over a tombstone.
	_tombstoneVersion = math.MaxInt64
)

// CacheRepository keeps notifications in Redis versioned by UpdatedAt.
type CacheRepository struct {
	rdb *redis.Redis
	ttl time.Duration
}

func NewCacheRepository(rdb *redis.Redis, ttl time.Duration) *CacheRepository {
	if ttl <= 0 {
		ttl = _defaultCacheTTL
	}
	return &CacheRepository{rdb: rdb, ttl: ttl}
}

// Get returns entity.ErrDataNotFound on a miss and for a tombstone.
func (s *CacheRepository) Get(ctx context.Context, id uuid.UUID) (*entity.Notification, error) {
	const op = "repository.CacheRepository.Get"

	cached, err := s.rdb.GetVersioned(ctx, cache.Key(_cacheKeyPrefix, id))
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrDataNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cached == "" {
		return nil, fmt.Errorf("%s: deleted: %w", op, entity.ErrDataNotFound)
	}

	notification, err := cache.Decode[entity.Notification]([]byte(cached))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return notification, nil
}

// Set is a no-op when the cached entry is at least as new as notification.
func (s *CacheRepository) Set(ctx context.Context, notification *entity.Notification) error {
	const op = "repository.CacheRepository.Set"

	data, err := cache.Encode(notification)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	key := cache.Key(_cacheKeyPrefix, notification.ID)
	if _, err = s.rdb.SetIfNewer(ctx, key, notification.UpdatedAt.UnixMicro(), data, s.ttl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *CacheRepository) Tombstone(ctx context.Context, id uuid.UUID) error {
	const op = "repository.CacheRepository.Tombstone"

	if _, err := s.rdb.SetIfNewer(ctx, cache.Key(_cacheKeyPrefix, id), _tombstoneVersion, "", s.ttl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
