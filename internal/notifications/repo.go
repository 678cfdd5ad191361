package notifications

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/stashspot/stashspot-backend/pkg/db/models"
)

// Repository persists the notification ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, notification *models.Notification) error
	MarkSent(ctx context.Context, notification *models.Notification, now time.Time) error
	DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *repository) MarkSent(ctx context.Context, notification *models.Notification, now time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", notification.ID).
		UpdateColumn("sent_at", now).Error
	if err != nil {
		return err
	}
	notification.SentAt = &now
	return nil
}

func (r *repository) DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	result := conn.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}
