package repository

import (
	"context"
	"testing"
	"time"

	"salesnotifier/internal/entity"
	"salesnotifier/pkg/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _columns = []string{
	"id", "type", "status", "recipient_email", "subject", "message",
	"resource_id", "error_message", "sent_at", "created_at", "updated_at",
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func pendingRow(id uuid.UUID, createdAt time.Time) []any {
	return []any{
		id, "sales_note_created", "pending", "a@b.com", "S", "M",
		int64(42), nil, nil, createdAt, createdAt,
	}
}

func TestNotifyRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewNotifyRepository(postgres.NewBuilder())
	createdAt := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	id := uuid.Must(uuid.NewV7())
	resourceID := int64(42)

	mock.ExpectQuery(`INSERT INTO notifications \(id,type,status,recipient_email,subject,message,resource_id,created_at,updated_at\) VALUES \(\$1,\$2,\$3,\$4,\$5,\$6,\$7,\$8,\$9\) RETURNING`).
		WithArgs(id, "sales_note_created", "pending", "a@b.com", "S", "M", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(_columns).AddRow(pendingRow(id, createdAt)...))

	n, err := repo.Create(context.Background(), mock, entity.Notification{
		ID:             id,
		Type:           entity.SalesNoteCreated,
		Status:         entity.StatusPending,
		RecipientEmail: "a@b.com",
		Subject:        "S",
		Message:        "M",
		ResourceID:     &resourceID,
	})
	require.NoError(t, err)

	assert.Equal(t, id, n.ID)
	assert.Equal(t, entity.StatusPending, n.Status)
	require.NotNil(t, n.ResourceID)
	assert.Equal(t, resourceID, *n.ResourceID)
	assert.Nil(t, n.ErrorMessage)
	assert.Nil(t, n.SentAt)
	assert.Equal(t, createdAt, n.CreatedAt)
}

func TestNotifyRepository_Create_UniqueViolation(t *testing.T) {
	mock := newMock(t)
	repo := NewNotifyRepository(postgres.NewBuilder())

	mock.ExpectQuery(`INSERT INTO notifications`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "notifications_pkey"})

	_, err := repo.Create(context.Background(), mock, entity.Notification{
		Type:   entity.SalesNoteCreated,
		Status: entity.StatusPending,
	})

	assert.ErrorIs(t, err, entity.ErrConflictingData)
}

func TestNotifyRepository_GetByID(t *testing.T) {
	id := uuid.Must(uuid.NewV7())

	t.Run("found", func(t *testing.T) {
		mock := newMock(t)
		repo := NewNotifyRepository(postgres.NewBuilder())
		createdAt := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

		mock.ExpectQuery(`SELECT id, type, status, .* FROM notifications WHERE id = \$1$`).
			WithArgs(id).
			WillReturnRows(pgxmock.NewRows(_columns).AddRow(pendingRow(id, createdAt)...))

		n, err := repo.GetByID(context.Background(), mock, id)
		require.NoError(t, err)
		assert.Equal(t, id, n.ID)
		assert.Equal(t, entity.SalesNoteCreated, n.Type)
	})

	t.Run("missing", func(t *testing.T) {
		mock := newMock(t)
		repo := NewNotifyRepository(postgres.NewBuilder())

		mock.ExpectQuery(`FROM notifications WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(pgxmock.NewRows(_columns))

		_, err := repo.GetByID(context.Background(), mock, id)
		assert.ErrorIs(t, err, entity.ErrDataNotFound)
	})
}

func TestNotifyRepository_GetForUpdate_LocksRow(t *testing.T) {
	mock := newMock(t)
	repo := NewNotifyRepository(postgres.NewBuilder())
	id := uuid.Must(uuid.NewV7())

	mock.ExpectQuery(`FROM notifications WHERE id = \$1 FOR UPDATE`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(_columns).AddRow(pendingRow(id, time.Now().UTC())...))

	_, err := repo.GetForUpdate(context.Background(), mock, id)
	assert.NoError(t, err)
}

func TestNotifyRepository_List(t *testing.T) {
	mock := newMock(t)
	repo := NewNotifyRepository(postgres.NewBuilder())
	resourceID := int64(42)
	first, second := uuid.Must(uuid.NewV7()), uuid.Must(uuid.NewV7())
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM notifications WHERE resource_id = \$1 ORDER BY created_at DESC, id DESC LIMIT 2 OFFSET 5`).
		WithArgs(resourceID).
		WillReturnRows(pgxmock.NewRows(_columns).
			AddRow(pendingRow(second, now)...).
			AddRow(pendingRow(first, now.Add(-time.Minute))...))

	got, err := repo.List(context.Background(), mock, entity.ListFilter{
		ResourceID: &resourceID,
		Page:       entity.Page{Skip: 5, Limit: 2},
	})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, second, got[0].ID)
	assert.Equal(t, first, got[1].ID)
}

func TestNotifyRepository_List_RequiresLimit(t *testing.T) {
	repo := NewNotifyRepository(postgres.NewBuilder())

	_, err := repo.List(context.Background(), nil, entity.ListFilter{})

	assert.ErrorIs(t, err, entity.ErrInvalidData)
}

func TestNotifyRepository_MarkSent(t *testing.T) {
	id := uuid.Must(uuid.NewV7())
	sentAt := time.Date(2024, 1, 1, 10, 0, 5, 0, time.UTC)

	t.Run("pending row", func(t *testing.T) {
		mock := newMock(t)
		repo := NewNotifyRepository(postgres.NewBuilder())

		row := pendingRow(id, sentAt.Add(-time.Minute))
		row[2] = "sent"
		row[8] = sentAt

		mock.ExpectQuery(`UPDATE notifications SET status = \$1, sent_at = \$2, error_message = \$3, updated_at = \$4 WHERE id = \$5 AND status <> \$6 RETURNING`).
			WithArgs("sent", sentAt, nil, sentAt, id, "sent").
			WillReturnRows(pgxmock.NewRows(_columns).AddRow(row...))

		n, err := repo.MarkSent(context.Background(), mock, id, sentAt)
		require.NoError(t, err)

		assert.Equal(t, entity.StatusSent, n.Status)
		require.NotNil(t, n.SentAt)
		assert.Equal(t, sentAt, *n.SentAt)
		assert.NoError(t, n.CheckState())
	})

	t.Run("already sent", func(t *testing.T) {
		mock := newMock(t)
		repo := NewNotifyRepository(postgres.NewBuilder())

		mock.ExpectQuery(`UPDATE notifications SET .* WHERE id = \$5 AND status <> \$6`).
			WithArgs("sent", sentAt, nil, sentAt, id, "sent").
			WillReturnRows(pgxmock.NewRows(_columns))

		_, err := repo.MarkSent(context.Background(), mock, id, sentAt)
		assert.ErrorIs(t, err, entity.ErrNotificationAlreadySent)
	})
}

func TestNotifyRepository_MarkFailed(t *testing.T) {
	mock := newMock(t)
	repo := NewNotifyRepository(postgres.NewBuilder())
	id := uuid.Must(uuid.NewV7())

	row := pendingRow(id, time.Now().UTC())
	row[2] = "failed"
	row[7] = "connection refused"

	mock.ExpectQuery(`UPDATE notifications SET status = \$1, error_message = \$2, sent_at = \$3, updated_at = \$4 WHERE id = \$5 AND status <> \$6 RETURNING`).
		WithArgs("failed", "connection refused", nil, pgxmock.AnyArg(), id, "sent").
		WillReturnRows(pgxmock.NewRows(_columns).AddRow(row...))

	n, err := repo.MarkFailed(context.Background(), mock, id, "connection refused")
	require.NoError(t, err)

	assert.Equal(t, entity.StatusFailed, n.Status)
	require.NotNil(t, n.ErrorMessage)
	assert.Equal(t, "connection refused", *n.ErrorMessage)
	assert.Nil(t, n.SentAt)
}

func TestNotifyRepository_Update_OnlyPresentFields(t *testing.T) {
	mock := newMock(t)
	repo := NewNotifyRepository(postgres.NewBuilder())
	id := uuid.Must(uuid.NewV7())
	status := entity.StatusPending

	mock.ExpectQuery(`UPDATE notifications SET updated_at = \$1, status = \$2, error_message = \$3 WHERE id = \$4 RETURNING`).
		WithArgs(pgxmock.AnyArg(), "pending", pgxmock.AnyArg(), id).
		WillReturnRows(pgxmock.NewRows(_columns).AddRow(pendingRow(id, time.Now().UTC())...))

	_, err := repo.Update(context.Background(), mock, id, entity.NotificationPatch{
		Status:       &status,
		ErrorMessage: entity.Null[string](),
	})
	assert.NoError(t, err)
}

func TestNotifyRepository_Update_EmptyPatchTouchesUpdatedAt(t *testing.T) {
	mock := newMock(t)
	repo := NewNotifyRepository(postgres.NewBuilder())
	id := uuid.Must(uuid.NewV7())

	mock.ExpectQuery(`UPDATE notifications SET updated_at = \$1 WHERE id = \$2 RETURNING`).
		WithArgs(pgxmock.AnyArg(), id).
		WillReturnRows(pgxmock.NewRows(_columns))

	_, err := repo.Update(context.Background(), mock, id, entity.NotificationPatch{})
	assert.ErrorIs(t, err, entity.ErrDataNotFound)
}

func TestNotifyRepository_Delete(t *testing.T) {
	id := uuid.Must(uuid.NewV7())

	t.Run("deleted", func(t *testing.T) {
		mock := newMock(t)
		repo := NewNotifyRepository(postgres.NewBuilder())

		mock.ExpectExec(`DELETE FROM notifications WHERE id = \$1`).
			WithArgs(id).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		assert.NoError(t, repo.Delete(context.Background(), mock, id))
	})

	t.Run("missing", func(t *testing.T) {
		mock := newMock(t)
		repo := NewNotifyRepository(postgres.NewBuilder())

		mock.ExpectExec(`DELETE FROM notifications WHERE id = \$1`).
			WithArgs(id).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		assert.ErrorIs(t, repo.Delete(context.Background(), mock, id), entity.ErrDataNotFound)
	})
}

func TestSalesNoteRepository_GetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		mock := newMock(t)
		repo := NewSalesNoteRepository(postgres.NewBuilder())

		mock.ExpectQuery(`SELECT id, status FROM sales_notes WHERE id = \$1`).
			WithArgs(int64(42)).
			WillReturnRows(pgxmock.NewRows([]string{"id", "status"}).AddRow(int64(42), "paid"))

		note, err := repo.GetByID(context.Background(), mock, 42)
		require.NoError(t, err)
		assert.Equal(t, entity.SalesNote{ID: 42, Status: "paid"}, *note)
	})

	t.Run("missing", func(t *testing.T) {
		mock := newMock(t)
		repo := NewSalesNoteRepository(postgres.NewBuilder())

		mock.ExpectQuery(`FROM sales_notes WHERE id = \$1`).
			WithArgs(int64(7)).
			WillReturnRows(pgxmock.NewRows([]string{"id", "status"}))

		_, err := repo.GetByID(context.Background(), mock, 7)
		assert.ErrorIs(t, err, entity.ErrDataNotFound)
	})

	t.Run("id is bound, never interpolated", func(t *testing.T) {
		mock := newMock(t)
		repo := NewSalesNoteRepository(postgres.NewBuilder())

		mock.ExpectQuery(`^SELECT id, status FROM sales_notes WHERE id = \$1$`).
			WithArgs(int64(-1)).
			WillReturnRows(pgxmock.NewRows([]string{"id", "status"}))

		_, err := repo.GetByID(context.Background(), mock, -1)
		assert.ErrorIs(t, err, entity.ErrDataNotFound)
	})
}
