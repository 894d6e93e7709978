package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_RejectsInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{name: "pool size", opts: []Option{PoolSize(0)}},
		{name: "idle", opts: []Option{MinIdleCons(0)}},
		{name: "idle above pool", opts: []Option{PoolSize(2), MinIdleCons(3)}},
		{name: "pool timeout", opts: []Option{PoolTimeout(0)}},
		{name: "db", opts: []Option{DB(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(context.Background(), "localhost:6379", "", tt.opts...)
			assert.ErrorContains(t, err, "invalid")
		})
	}
}

func TestNew_ValidOptionsApplied(t *testing.T) {
	r := &Redis{}
	for _, opt := range []Option{PoolSize(5), MinIdleCons(2), PoolTimeout(time.Second), DB(3)} {
		opt(r)
	}

	assert.NoError(t, r.validate())
	assert.Equal(t, 5, r.poolSize)
	assert.Equal(t, 2, r.minIdleCons)
	assert.Equal(t, 3, r.db)
}
