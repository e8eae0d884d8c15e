package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/saransh1220/portal-notify/internal/modules/feed/domain"
	"github.com/saransh1220/portal-notify/internal/modules/feed/infrastructure/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	return sqlx.NewDb(sqlDB, "sqlmock"), mock, func() { _ = sqlDB.Close() }
}

var entryColumns = []string{"id", "user_id", "type", "icon", "title", "message", "data", "is_read", "created_at", "read_at"}

func TestPgEntryRepository_Operations(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := postgres.NewPgEntryRepository(db)
	ctx := context.Background()
	created := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	e := domain.NewEntry(domain.StatusChange{
		UserID:      "student-1",
		JobTitle:    "Backend Intern",
		CompanyName: "Acme",
		NewStatus:   "accepted",
	}, created)

	mock.ExpectExec(`INSERT INTO notifications`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Create(ctx, &e))

	rows := sqlmock.NewRows(entryColumns).
		AddRow(e.ID.String(), "student-1", domain.TypeApplicationStatus, "check-circle", e.Title, e.Message,
			[]byte(`{"job_title":"Backend Intern","new_status":"accepted"}`), false, created, nil)
	mock.ExpectQuery(`SELECT id, user_id, type, icon, title, message, data, is_read, created_at, read_at`).
		WithArgs("student-1", 50).
		WillReturnRows(rows)
	items, err := repo.ListByUser(ctx, "student-1", 50)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, e.ID, items[0].ID)
	assert.Equal(t, "accepted", items[0].Data["new_status"])
	assert.Nil(t, items[0].ReadAt)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM notifications`).
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	count, err := repo.UnreadCount(ctx, "student-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	mock.ExpectExec(`UPDATE notifications`).
		WithArgs(e.ID, "student-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkRead(ctx, e.ID, "student-1"))

	mock.ExpectExec(`UPDATE notifications`).
		WithArgs("student-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	n, err := repo.MarkAllRead(ctx, "student-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgEntryRepository_ListByUser_Error(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := postgres.NewPgEntryRepository(db)

	mock.ExpectQuery(`SELECT id, user_id`).
		WithArgs("student-1", 10).
		WillReturnError(errors.New("query fail"))

	items, err := repo.ListByUser(context.Background(), "student-1", 10)
	require.ErrorContains(t, err, "query fail")
	assert.Nil(t, items)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgEntryRepository_MarkRead_ErrorBranches(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := postgres.NewPgEntryRepository(db)
	ctx := context.Background()
	id := uuid.New()

	t.Run("exec error", func(t *testing.T) {
		mock.ExpectExec(`UPDATE notifications`).
			WithArgs(id, "student-1").
			WillReturnError(errors.New("exec fail"))
		require.ErrorContains(t, repo.MarkRead(ctx, id, "student-1"), "exec fail")
	})

	t.Run("rows affected error", func(t *testing.T) {
		mock.ExpectExec(`UPDATE notifications`).
			WithArgs(id, "student-1").
			WillReturnResult(sqlmock.NewErrorResult(errors.New("rows fail")))
		require.ErrorContains(t, repo.MarkRead(ctx, id, "student-1"), "rows fail")
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec(`UPDATE notifications`).
			WithArgs(id, "student-1").
			WillReturnResult(sqlmock.NewResult(0, 0))
		require.ErrorIs(t, repo.MarkRead(ctx, id, "student-1"), domain.ErrEntryNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgEntryRepository_CountAndMarkAll_Errors(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := postgres.NewPgEntryRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM notifications`).
		WithArgs("student-1").
		WillReturnError(errors.New("count fail"))
	count, err := repo.UnreadCount(ctx, "student-1")
	require.ErrorContains(t, err, "count fail")
	assert.Equal(t, 0, count)

	mock.ExpectExec(`UPDATE notifications`).
		WithArgs("student-1").
		WillReturnError(errors.New("exec fail"))
	_, err = repo.MarkAllRead(ctx, "student-1")
	require.ErrorContains(t, err, "exec fail")

	require.NoError(t, mock.ExpectationsWereMet())
}
