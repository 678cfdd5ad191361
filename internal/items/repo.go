package items

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stashspot/stashspot-backend/pkg/db/models"
	"github.com/stashspot/stashspot-backend/pkg/enums"
	"github.com/stashspot/stashspot-backend/pkg/pagination"
)

// Repository manages item persistence. Item status writes only happen through
// booking transitions, so mutation is limited to bulk status updates.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// FindOwned re-reads the given items scoped to the owner. Items belonging
	// to other customers are silently absent from the result.
	FindOwned(ctx context.Context, customerID uuid.UUID, ids []uuid.UUID) ([]models.Item, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Item, error)
	List(ctx context.Context, customerID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Item, *pagination.Cursor, error)
	SetStatus(ctx context.Context, ids []uuid.UUID, status enums.ItemStatus) error
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

func (r *repository) FindOwned(ctx context.Context, customerID uuid.UUID, ids []uuid.UUID) ([]models.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Item
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND id IN ?", customerID, ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Item
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) List(ctx context.Context, customerID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Item, *pagination.Cursor, error) {
	buffered := pagination.LimitWithBuffer(limit)
	normalized := pagination.NormalizeLimit(limit)
	query := r.db.WithContext(ctx).Model(&models.Item{}).Where("customer_id = ?", customerID)
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Item
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

func (r *repository) SetStatus(ctx context.Context, ids []uuid.UUID, status enums.ItemStatus) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("id IN ?", ids).
		Update("status", status).Error
}
