package ledger

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/stashspot/stashspot-backend/pkg/db"
	"github.com/stashspot/stashspot-backend/pkg/db/models"
	"github.com/stashspot/stashspot-backend/pkg/enums"
	pkgerrors "github.com/stashspot/stashspot-backend/pkg/errors"
)

// Service is the idempotency ledger for inbound webhook events. Every
// externally delivered event is keyed by its provider event id; the ledger
// answers whether an id has been seen and records ids as they are consumed.
type Service interface {
	HasBeenProcessed(ctx context.Context, eventID string) (bool, error)
	// RecordProcessed inserts a ledger entry for the event. It reports
	// duplicate=true when the id was already recorded by a concurrent or
	// earlier delivery, which callers treat as "skip processing".
	RecordProcessed(ctx context.Context, tx *gorm.DB, input RecordInput) (duplicate bool, err error)
	PurgeOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

// RecordInput describes one consumed external event.
type RecordInput struct {
	EventID   string
	Source    enums.EventSource
	EventType string
	Payload   []byte
}

type service struct {
	repo Repository
}

// NewService wires the ledger dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) HasBeenProcessed(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	seen, err := s.repo.ExistsByEventID(ctx, eventID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check ledger")
	}
	return seen, nil
}

func (s *service) RecordProcessed(ctx context.Context, tx *gorm.DB, input RecordInput) (bool, error) {
	if input.EventID == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	record := &models.ProcessedEvent{
		EventID:   input.EventID,
		Source:    input.Source,
		EventType: input.EventType,
	}
	if len(input.Payload) > 0 {
		record.Payload = datatypes.JSON(input.Payload)
	}
	err := s.repo.WithTx(tx).Create(ctx, record)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return true, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record processed event")
	}
	return false, nil
}

func (s *service) PurgeOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	removed, err := s.repo.DeleteOlderThan(ctx, tx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge processed events")
	}
	return removed, nil
}
