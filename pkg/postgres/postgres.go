package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"salesnotifier/pkg/logger"
)

const (
	_defaultMaxPoolSize    = 10
	_defaultConnAttempts   = 5
	_defaultBaseRetryDelay = 500 * time.Millisecond
	_defaultMaxRetryDelay  = 5 * time.Second
)

// QueryExecuter is satisfied by the pool and by an open transaction,
// repositories accept either.
type QueryExecuter interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Postgres struct {
	squirrel.StatementBuilderType

	Pool *pgxpool.Pool

	maxPoolSize    int32
	connAttempts   int
	baseRetryDelay time.Duration
	maxRetryDelay  time.Duration
}

// NewBuilder returns a Postgres that only builds statements and has no pool.
// New starts from it; repositories that always receive an explicit
// QueryExecuter may use it directly.
func NewBuilder() *Postgres {
	return &Postgres{StatementBuilderType: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)}
}

func New(ctx context.Context, dsn string, log logger.Logger, opts ...Option) (*Postgres, error) {
	const op = "postgres.New"

	pg := NewBuilder()
	pg.maxPoolSize = _defaultMaxPoolSize
	pg.connAttempts = _defaultConnAttempts
	pg.baseRetryDelay = _defaultBaseRetryDelay
	pg.maxRetryDelay = _defaultMaxRetryDelay

	for _, opt := range opts {
		opt(pg)
	}

	if err := pg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: parse dsn: %w", op, err)
	}
	poolCfg.MaxConns = pg.maxPoolSize

	delay := pg.baseRetryDelay
	for attempt := 1; attempt <= pg.connAttempts; attempt++ {
		pg.Pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			err = pg.Pool.Ping(ctx)
			if err == nil {
				return pg, nil
			}
			pg.Pool.Close()
		}

		log.LogAttrs(ctx, logger.WarnLevel, "postgres is not ready, retrying",
			logger.String("op", op),
			logger.Int("attempt", attempt),
			logger.Duration("delay", delay),
			logger.Any("error", err),
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(delay):
		}

		delay = min(delay*2, pg.maxRetryDelay)
	}

	return nil, fmt.Errorf("%s: connect after %d attempts: %w", op, pg.connAttempts, err)
}

func (p *Postgres) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return p.Pool.Exec(ctx, sql, args...)
}

func (p *Postgres) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return p.Pool.Query(ctx, sql, args...)
}

func (p *Postgres) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return p.Pool.QueryRow(ctx, sql, args...)
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.Pool.Ping(ctx)
}

func (p *Postgres) Close() {
	if p.Pool != nil {
		p.Pool.Close()
	}
}
