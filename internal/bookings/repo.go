package bookings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stashspot/stashspot-backend/pkg/db/models"
	dbtypes "github.com/stashspot/stashspot-backend/pkg/db/types"
	"github.com/stashspot/stashspot-backend/pkg/enums"
	"github.com/stashspot/stashspot-backend/pkg/pagination"
)

// Repository manages booking persistence. Ownership scoping happens in the
// queries themselves so a cross-tenant read is indistinguishable from a miss.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	FindOwned(ctx context.Context, id, customerID uuid.UUID) (*models.Booking, error)
	FindByExternalRef(ctx context.Context, ref string) (*models.Booking, error)
	List(ctx context.Context, params ListQuery) ([]models.Booking, *pagination.Cursor, error)
	Create(ctx context.Context, booking *models.Booking) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	// SetItemAssignment persists a new partition result and moves the booking
	// to the given status in one write.
	SetItemAssignment(ctx context.Context, id uuid.UUID, pickup, delivery dbtypes.UUIDArray, status enums.BookingStatus) error
	// CompleteIf is the conditional completion update. It reports whether the
	// row was transitioned; zero rows affected means a concurrent caller won.
	CompleteIf(ctx context.Context, id uuid.UUID, allowed []enums.BookingStatus, now time.Time) (bool, error)
}

// ListQuery filters a customer's bookings.
type ListQuery struct {
	CustomerID uuid.UUID
	Status     *enums.BookingStatus
	Limit      int
	Cursor     *pagination.Cursor
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

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) FindOwned(ctx context.Context, id, customerID uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		First(&booking, "id = ? AND customer_id = ?", id, customerID).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) FindByExternalRef(ctx context.Context, ref string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		First(&booking, "external_event_ref = ?", ref).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) List(ctx context.Context, params ListQuery) ([]models.Booking, *pagination.Cursor, error) {
	buffered := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Booking{}).Where("customer_id = ?", params.CustomerID)
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Booking
	if err := query.Order("created_at DESC, id DESC").Limit(buffered).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		rows = rows[:normalized]
		last := rows[normalized-1]
		return rows, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return rows, nil, nil
}

func (r *repository) Create(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) SetItemAssignment(ctx context.Context, id uuid.UUID, pickup, delivery dbtypes.UUIDArray, status enums.BookingStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"pickup_item_ids":   pickup,
			"delivery_item_ids": delivery,
			"status":            status,
		}).Error
}

func (r *repository) CompleteIf(ctx context.Context, id uuid.UUID, allowed []enums.BookingStatus, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status IN ?", id, allowed).
		Updates(map[string]any{
			"status":       enums.BookingStatusCompleted,
			"completed_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
