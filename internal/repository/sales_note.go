package repository

import (
	"context"
	"errors"
	"fmt"

	"salesnotifier/internal/entity"
	"salesnotifier/pkg/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

// SalesNoteRepository reads sales notes owned by the billing schema.
type SalesNoteRepository struct {
	db *postgres.Postgres
}

func NewSalesNoteRepository(db *postgres.Postgres) *SalesNoteRepository {
	return &SalesNoteRepository{db: db}
}

func (r *SalesNoteRepository) GetByID(
	ctx context.Context,
	qe postgres.QueryExecuter,
	id int64,
) (*entity.SalesNote, error) {
	const op = "repository.SalesNoteRepository.GetByID"

	sql, args, err := r.db.Select("id", "status").
		From("sales_notes").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	var note entity.SalesNote
	err = qe.QueryRow(ctx, sql, args...).Scan(&note.ID, &note.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrDataNotFound)
		}
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}

	return &note, nil
}
