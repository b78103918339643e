package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Swastik007sharma/Lost-And-Found-sub001/internal/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationRepository persists per-recipient notifications.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, userID string, message string, notificationType string, itemID string) (models.Notification, error)
	ListForUser(ctx context.Context, userID string) ([]models.Notification, error)
	MarkRead(ctx context.Context, notificationID string, userID string) error
}

// NotificationRepo is a sqlx-backed repository.
type NotificationRepo struct {
	db *sqlx.DB
}

// NewNotificationRepo constructs NotificationRepo.
func NewNotificationRepo(db *sqlx.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

// CreateNotification stores one notification addressed to a single user.
func (r *NotificationRepo) CreateNotification(ctx context.Context, userID string, message string, notificationType string, itemID string) (models.Notification, error) {
	var n models.Notification
	err := r.db.QueryRowxContext(ctx, `INSERT INTO notifications (id, user_id, message, type, item_id) VALUES ($1, $2, $3, $4, $5) RETURNING id, user_id, message, type, is_read, item_id, created_at`, uuid.NewString(), userID, message, notificationType, itemID).
		Scan(&n.ID, &n.UserID, &n.Message, &n.Type, &n.IsRead, &n.ItemID, &n.CreatedAt)
	return n, err
}

// ListForUser returns the user's notifications, newest first.
func (r *NotificationRepo) ListForUser(ctx context.Context, userID string) ([]models.Notification, error) {
	var list []models.Notification
	err := r.db.SelectContext(ctx, &list, `SELECT id, user_id, message, type, is_read, item_id, created_at FROM notifications WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	return list, err
}

// MarkRead flags a notification as read for its addressee.
func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID string, userID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id=$1 AND user_id=$2`, notificationID, userID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
