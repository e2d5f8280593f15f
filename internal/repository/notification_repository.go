package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/angelicadichon/eSumbong/internal/models"
)

// NotificationRepository provides persistence for per-user notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts an emitted notification.
func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	if notification.Status == "" {
		notification.Status = models.NotificationUnread
	}
	const query = `INSERT INTO notifications (username, message, status, created_at)
VALUES ($1, $2, $3, $4)
RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		notification.Username,
		notification.Message,
		notification.Status,
		notification.CreatedAt,
	).Scan(&notification.ID); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListByUsername returns the recipient's notifications excluding deleted
// tombstones, newest first. Identifier descent breaks created_at ties.
func (r *NotificationRepository) ListByUsername(ctx context.Context, username string) ([]models.Notification, error) {
	const query = `SELECT id, username, message, status, created_at
FROM notifications
WHERE username = $1 AND status <> 'deleted'
ORDER BY created_at DESC, id DESC`
	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, username); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// CountUnread returns the recipient's unread badge count.
func (r *NotificationRepository) CountUnread(ctx context.Context, username string) (int, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE username = $1 AND status = 'unread'`
	var count int
	if err := r.db.GetContext(ctx, &count, query, username); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkAllRead flips every unread notification for the recipient to read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, username string) error {
	const query = `UPDATE notifications SET status = 'read' WHERE username = $1 AND status = 'unread'`
	if _, err := r.db.ExecContext(ctx, query, username); err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}

// SoftDelete tombstones one notification when it belongs to the recipient.
// A username mismatch matches zero rows and is deliberately not an error.
func (r *NotificationRepository) SoftDelete(ctx context.Context, id int64, username string) error {
	const query = `UPDATE notifications SET status = 'deleted' WHERE id = $1 AND username = $2`
	if _, err := r.db.ExecContext(ctx, query, id, username); err != nil {
		return fmt.Errorf("soft delete notification: %w", err)
	}
	return nil
}
