package customers

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stashspot/stashspot-backend/pkg/db/models"
	"github.com/stashspot/stashspot-backend/pkg/enums"
	pkgerrors "github.com/stashspot/stashspot-backend/pkg/errors"
)

// Service manages customer profiles. Scheduling events resolve owners by
// email and auto-provision a minimal profile for accounts that never filled
// one in; the payments processor mirrors subscription state from provider
// events.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	// ResolveByEmail finds the account owning the email. A CodeNotFound error
	// means no account exists, which scheduling callers treat as an orphan
	// event rather than a failure. Unprofiled accounts get a minimal profile
	// provisioned on the way through.
	ResolveByEmail(ctx context.Context, tx *gorm.DB, email, name string) (*models.Customer, error)
	ApplySubscription(ctx context.Context, tx *gorm.DB, input SubscriptionInput) (*models.Customer, error)
}

// SubscriptionInput mirrors one payment provider subscription change.
type SubscriptionInput struct {
	PaymentRef string
	Email      string
	Status     enums.SubscriptionStatus
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "customers repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return customer, nil
}

func (s *service) ResolveByEmail(ctx context.Context, tx *gorm.DB, email, name string) (*models.Customer, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	repo := s.repo.WithTx(tx)

	customer, err := repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no account for email")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup customer by email")
	}

	if !customer.Profiled {
		updates := map[string]any{"profiled": true}
		if customer.Name == "" && name != "" {
			updates["name"] = name
		}
		if err := repo.Update(ctx, customer.ID, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "provision customer profile")
		}
		customer.Profiled = true
		if customer.Name == "" {
			customer.Name = name
		}
	}
	return customer, nil
}

// ApplySubscription links a payment provider customer reference to a local
// customer and mirrors the subscription status. Lookup prefers the payment
// ref; the email fallback covers the first event for a customer.
func (s *service) ApplySubscription(ctx context.Context, tx *gorm.DB, input SubscriptionInput) (*models.Customer, error) {
	if input.PaymentRef == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment ref required")
	}
	repo := s.repo.WithTx(tx)

	customer, err := repo.FindByPaymentRef(ctx, input.PaymentRef)
	if errors.Is(err, gorm.ErrRecordNotFound) && input.Email != "" {
		customer, err = repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no customer for payment ref")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup customer for subscription")
	}

	updates := map[string]any{
		"payment_ref":         input.PaymentRef,
		"subscription_status": input.Status,
	}
	if err := repo.Update(ctx, customer.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update subscription")
	}
	customer.PaymentRef = &input.PaymentRef
	customer.SubscriptionStatus = input.Status
	return customer, nil
}
