package audit

import (
	"context"

	"gorm.io/gorm"

	"github.com/stashspot/stashspot-backend/pkg/db/models"
)

// Repository appends booking events. The log is write-only from the
// application's point of view.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, event *models.BookingEvent) error
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

func (r *repository) Create(ctx context.Context, event *models.BookingEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}
