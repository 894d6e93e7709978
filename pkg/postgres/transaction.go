package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"salesnotifier/pkg/logger"
)

// Manager runs fn inside a single transaction, committing when fn returns nil.
type Manager interface {
	ExecuteInTransaction(ctx context.Context, name string, fn func(tx QueryExecuter) error) error
}

type TxManager struct {
	db  *Postgres
	log logger.Logger
}

func NewManager(db *Postgres, log logger.Logger) (*TxManager, error) {
	if db == nil || db.Pool == nil {
		return nil, errors.New("postgres.NewManager: nil database")
	}
	return &TxManager{db: db, log: log}, nil
}

func (m *TxManager) ExecuteInTransaction(ctx context.Context, name string, fn func(tx QueryExecuter) error) (err error) {
	const op = "postgres.TxManager.ExecuteInTransaction"

	start := time.Now()

	tx, err := m.db.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("%s: %s: begin: %w", op, name, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				m.log.LogAttrs(ctx, logger.ErrorLevel, "transaction rollback failed",
					logger.String("op", op),
					logger.String("tx", name),
					logger.Any("error", rbErr),
				)
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %s: commit: %w", op, name, err)
	}

	m.log.LogAttrs(ctx, logger.DebugLevel, "transaction committed",
		logger.String("tx", name),
		logger.Duration("duration", time.Since(start)),
	)

	return nil
}

// HandleError annotates an error raised inside a transaction body with the step that failed.
func HandleError(txName, step string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %w", txName, step, err)
}
