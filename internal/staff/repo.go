package staff

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/stashspot/stashspot-backend/pkg/db/models"
)

// Repository looks up the staff registry.
type Repository interface {
	FindActiveByEmail(ctx context.Context, email string) (*models.StaffMember, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindActiveByEmail(ctx context.Context, email string) (*models.StaffMember, error) {
	var member models.StaffMember
	err := r.db.WithContext(ctx).
		First(&member, "email = ? AND active", strings.ToLower(strings.TrimSpace(email))).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}
