package staff

import (
	"context"
	"errors"

	"gorm.io/gorm"

	pkgerrors "github.com/stashspot/stashspot-backend/pkg/errors"
)

// Registry answers whether an authenticated identity belongs to staff.
// The registry table is the source of truth, not the token role claim.
type Registry interface {
	IsActiveMember(ctx context.Context, email string) (bool, error)
}

type registry struct {
	repo Repository
}

func NewRegistry(repo Repository) (Registry, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "staff repository required")
	}
	return &registry{repo: repo}, nil
}

func (r *registry) IsActiveMember(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, nil
	}
	_, err := r.repo.FindActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "staff registry lookup")
	}
	return true, nil
}
