package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salesnotifier/internal/entity"
	"salesnotifier/pkg/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	_notificationsTable = "notifications"
	notificationColumns = "id, type, status, recipient_email, subject, message, resource_id, error_message, sent_at, created_at, updated_at"

	_pgUniqueViolation = "23505"
	_pgCheckViolation  = "23514"
)

type NotifyRepository struct {
	db *postgres.Postgres
}

func NewNotifyRepository(db *postgres.Postgres) *NotifyRepository {
	return &NotifyRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *NotifyRepository) scanNotification(scanner rowScanner) (*entity.Notification, error) {
	var (
		n          entity.Notification
		eventType  string
		status     string
		resourceID pgtype.Int8
		errMessage pgtype.Text
		sentAt     pgtype.Timestamptz
	)

	err := scanner.Scan(
		&n.ID,
		&eventType,
		&status,
		&n.RecipientEmail,
		&n.Subject,
		&n.Message,
		&resourceID,
		&errMessage,
		&sentAt,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	n.Type = entity.EventType(eventType)
	n.Status = entity.Status(status)
	if resourceID.Valid {
		id := resourceID.Int64
		n.ResourceID = &id
	}
	if errMessage.Valid {
		msg := errMessage.String
		n.ErrorMessage = &msg
	}
	if sentAt.Valid {
		at := sentAt.Time
		n.SentAt = &at
	}

	return &n, nil
}

func (r *NotifyRepository) Create(
	ctx context.Context,
	qe postgres.QueryExecuter,
	notify entity.Notification,
) (*entity.Notification, error) {
	const op = "repository.NotifyRepository.Create"

	if notify.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("%s: new v7 uuid: %w", op, err)
		}
		notify.ID = id
	}

	now := time.Now().UTC()
	if notify.CreatedAt.IsZero() {
		notify.CreatedAt = now
	}
	notify.UpdatedAt = notify.CreatedAt

	sql, args, err := r.db.Insert(_notificationsTable).
		Columns("id", "type", "status", "recipient_email", "subject", "message", "resource_id", "created_at", "updated_at").
		Values(
			notify.ID,
			string(notify.Type),
			string(notify.Status),
			notify.RecipientEmail,
			notify.Subject,
			notify.Message,
			notify.ResourceID,
			notify.CreatedAt,
			notify.UpdatedAt,
		).
		Suffix("RETURNING " + notificationColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	created, err := r.scanNotification(qe.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapWriteError(err))
	}

	return created, nil
}

func (r *NotifyRepository) GetByID(ctx context.Context, qe postgres.QueryExecuter, id uuid.UUID) (*entity.Notification, error) {
	const op = "repository.NotifyRepository.GetByID"

	return r.getOne(ctx, qe, op, r.db.Select(notificationColumns).
		From(_notificationsTable).
		Where(squirrel.Eq{"id": id}))
}

// GetForUpdate reads the row and holds its lock until qe's transaction ends.
func (r *NotifyRepository) GetForUpdate(ctx context.Context, qe postgres.QueryExecuter, id uuid.UUID) (*entity.Notification, error) {
	const op = "repository.NotifyRepository.GetForUpdate"

	return r.getOne(ctx, qe, op, r.db.Select(notificationColumns).
		From(_notificationsTable).
		Where(squirrel.Eq{"id": id}).
		Suffix("FOR UPDATE"))
}

func (r *NotifyRepository) getOne(
	ctx context.Context,
	qe postgres.QueryExecuter,
	op string,
	query squirrel.SelectBuilder,
) (*entity.Notification, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	n, err := r.scanNotification(qe.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrDataNotFound)
		}
		return nil, fmt.Errorf("%s: scan row: %w", op, err)
	}

	return n, nil
}

func (r *NotifyRepository) List(
	ctx context.Context,
	qe postgres.QueryExecuter,
	filter entity.ListFilter,
) ([]entity.Notification, error) {
	const op = "repository.NotifyRepository.List"

	if filter.Page.Limit == 0 {
		return nil, fmt.Errorf("%s: limit must be > 0: %w", op, entity.ErrInvalidData)
	}

	query := r.db.Select(notificationColumns).
		From(_notificationsTable).
		OrderBy("created_at DESC", "id DESC").
		Offset(filter.Page.Skip).
		Limit(filter.Page.Limit)

	if filter.ResourceID != nil {
		query = query.Where(squirrel.Eq{"resource_id": *filter.ResourceID})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	rows, err := qe.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}
	defer rows.Close()

	results := make([]entity.Notification, 0, filter.Page.Limit)
	for rows.Next() {
		n, err := r.scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}
		results = append(results, *n)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows error: %w", op, err)
	}

	return results, nil
}

// Update writes only the fields present in patch; updated_at is always refreshed.
func (r *NotifyRepository) Update(
	ctx context.Context,
	qe postgres.QueryExecuter,
	id uuid.UUID,
	patch entity.NotificationPatch,
) (*entity.Notification, error) {
	const op = "repository.NotifyRepository.Update"

	update := r.db.Update(_notificationsTable).
		Set("updated_at", time.Now().UTC())

	if patch.Status != nil {
		update = update.Set("status", string(*patch.Status))
	}
	if patch.ErrorMessage.Set {
		update = update.Set("error_message", patch.ErrorMessage.Value)
	}
	if patch.SentAt.Set {
		update = update.Set("sent_at", patch.SentAt.Value)
	}

	return r.updateOne(ctx, qe, op, update.Where(squirrel.Eq{"id": id}), entity.ErrDataNotFound)
}

func (r *NotifyRepository) MarkSent(
	ctx context.Context,
	qe postgres.QueryExecuter,
	id uuid.UUID,
	sentAt time.Time,
) (*entity.Notification, error) {
	const op = "repository.NotifyRepository.MarkSent"

	update := r.db.Update(_notificationsTable).
		Set("status", string(entity.StatusSent)).
		Set("sent_at", sentAt).
		Set("error_message", nil).
		Set("updated_at", sentAt).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.NotEq{"status": string(entity.StatusSent)})

	return r.updateOne(ctx, qe, op, update, entity.ErrNotificationAlreadySent)
}

func (r *NotifyRepository) MarkFailed(
	ctx context.Context,
	qe postgres.QueryExecuter,
	id uuid.UUID,
	reason string,
) (*entity.Notification, error) {
	const op = "repository.NotifyRepository.MarkFailed"

	update := r.db.Update(_notificationsTable).
		Set("status", string(entity.StatusFailed)).
		Set("error_message", reason).
		Set("sent_at", nil).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.NotEq{"status": string(entity.StatusSent)})

	return r.updateOne(ctx, qe, op, update, entity.ErrNotificationAlreadySent)
}

// updateOne runs a single-row UPDATE ... RETURNING; noRows is reported when no row matched.
func (r *NotifyRepository) updateOne(
	ctx context.Context,
	qe postgres.QueryExecuter,
	op string,
	update squirrel.UpdateBuilder,
	noRows error,
) (*entity.Notification, error) {
	sql, args, err := update.Suffix("RETURNING " + notificationColumns).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	n, err := r.scanNotification(qe.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, noRows)
		}
		return nil, fmt.Errorf("%s: %w", op, mapWriteError(err))
	}

	return n, nil
}

func (r *NotifyRepository) Delete(ctx context.Context, qe postgres.QueryExecuter, id uuid.UUID) error {
	const op = "repository.NotifyRepository.Delete"

	sql, args, err := r.db.Delete(_notificationsTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: building query: %w", op, err)
	}

	res, err := qe.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("%s: exec: %w", op, err)
	}

	if res.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, entity.ErrDataNotFound)
	}

	return nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case _pgUniqueViolation:
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, entity.ErrConflictingData)
		case _pgCheckViolation:
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, entity.ErrInvalidData)
		}
	}
	return err
}
