package redis

import (
	"errors"
	"time"
)

type Option func(*Redis)

func PoolSize(size int) Option {
	return func(r *Redis) {
		r.poolSize = size
	}
}

func MinIdleCons(cons int) Option {
	return func(r *Redis) {
		r.minIdleCons = cons
	}
}

func PoolTimeout(timeout time.Duration) Option {
	return func(r *Redis) {
		r.poolTimeout = timeout
	}
}

func DB(db int) Option {
	return func(r *Redis) {
		r.db = db
	}
}

func (r *Redis) validate() error {
	if r.poolSize <= 0 {
		return errors.New("invalid poolSize: must be > 0")
	}

	if r.minIdleCons <= 0 {
		return errors.New("invalid minIdleCons: must be > 0")
	}

	if r.minIdleCons > r.poolSize {
		return errors.New("invalid minIdleCons: must be <= poolSize")
	}

	if r.poolTimeout <= 0 {
		return errors.New("invalid poolTimeout: must be > 0")
	}

	if r.db < 0 {
		return errors.New("invalid db: must be >= 0")
	}

	return nil
}
