package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/saransh1220/portal-notify/internal/modules/feed/domain"
)

type PgEntryRepository struct {
	db *sqlx.DB
}

func NewPgEntryRepository(db *sqlx.DB) *PgEntryRepository {
	return &PgEntryRepository{db: db}
}

func (r *PgEntryRepository) Create(ctx context.Context, e *domain.Entry) error {
	query := `
		INSERT INTO notifications (id, user_id, type, icon, title, message, data, is_read, created_at)
		VALUES (:id, :user_id, :type, :icon, :title, :message, :data, :is_read, :created_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, e); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *PgEntryRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Entry, error) {
	query := `
		SELECT id, user_id, type, icon, title, message, data, is_read, created_at, read_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	var entries []domain.Entry
	if err := r.db.SelectContext(ctx, &entries, query, userID, limit); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return entries, nil
}

func (r *PgEntryRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM notifications
		WHERE user_id = $1 AND is_read = FALSE
	`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}

func (r *PgEntryRepository) MarkRead(ctx context.Context, id uuid.UUID, userID string) error {
	query := `
		UPDATE notifications
		SET is_read = TRUE, read_at = COALESCE(read_at, NOW())
		WHERE id = $1 AND user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	if rows == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

func (r *PgEntryRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	query := `
		UPDATE notifications
		SET is_read = TRUE, read_at = NOW()
		WHERE user_id = $1 AND is_read = FALSE
	`
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return int(rows), nil
}
