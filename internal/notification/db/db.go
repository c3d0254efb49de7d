package db

import (
	"context"

	"shaadibiyah/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// CreateNotification → insert a new per-user notification record
func (d *DB) CreateNotification(ctx context.Context, n models.Notification) error {
	_, err := d.Bun.NewInsert().Model(&n).Exec(ctx)
	return err
}

// ListByUser → all notifications for a user, newest first
func (d *DB) ListByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	var notifications []models.Notification
	err := d.Bun.NewSelect().
		Model(&notifications).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkRead flips the read flag; the only mutation a notification undergoes.
func (d *DB) MarkRead(ctx context.Context, notificationID, userID string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Notification)(nil)).
		Set("is_read = ?", true).
		Where("notification_id = ?", notificationID).
		Where("user_id = ?", userID).
		Exec(ctx)
	return err
}

// CountUnread → unread notifications for a user
func (d *DB) CountUnread(ctx context.Context, userID string) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Notification)(nil)).
		Where("user_id = ?", userID).
		Where("is_read = ?", false).
		Count(ctx)
}
