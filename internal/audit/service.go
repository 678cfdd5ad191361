package audit

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stashspot/stashspot-backend/pkg/db/models"
	"github.com/stashspot/stashspot-backend/pkg/enums"
	pkgerrors "github.com/stashspot/stashspot-backend/pkg/errors"
	"github.com/stashspot/stashspot-backend/pkg/logger"
)

// Service appends audit events for booking lifecycle changes. Recording is
// best effort: callers on hot paths use TryRecord, which logs failures and
// never propagates them.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, entry Entry) error
	TryRecord(ctx context.Context, tx *gorm.DB, entry Entry)
}

// Entry is one audit event. BookingID stays nil for orphan events.
type Entry struct {
	BookingID *uuid.UUID
	EventType enums.BookingEventType
	Metadata  map[string]any
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// ServiceParams lists audit service dependencies.
type ServiceParams struct {
	Repo   Repository
	Logger *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "audit repository required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "audit logger required")
	}
	return &service{repo: params.Repo, logg: params.Logger}, nil
}

func (s *service) Record(ctx context.Context, tx *gorm.DB, entry Entry) error {
	event := &models.BookingEvent{
		BookingID: entry.BookingID,
		EventType: entry.EventType,
	}
	if len(entry.Metadata) > 0 {
		raw, err := json.Marshal(entry.Metadata)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode audit metadata")
		}
		event.Metadata = raw
	}
	if err := s.repo.WithTx(tx).Create(ctx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append audit event")
	}
	return nil
}

func (s *service) TryRecord(ctx context.Context, tx *gorm.DB, entry Entry) {
	if err := s.Record(ctx, tx, entry); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "audit_event_type", string(entry.EventType)), "audit append failed", err)
	}
}
