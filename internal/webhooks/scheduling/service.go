package schedulingwebhook

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stashspot/stashspot-backend/internal/bookings"
	"github.com/stashspot/stashspot-backend/internal/ledger"
	"github.com/stashspot/stashspot-backend/pkg/enums"
	pkgerrors "github.com/stashspot/stashspot-backend/pkg/errors"
	"github.com/stashspot/stashspot-backend/pkg/logger"
	"github.com/stashspot/stashspot-backend/pkg/types"
)

const (
	EventTypeInviteeCreated  = "invitee.created"
	EventTypeInviteeCanceled = "invitee.canceled"
)

// Event is the scheduling provider's webhook envelope. The discriminator
// arrives as "event"; older deliveries used "type" and both are accepted.
type Event struct {
	ID         string  `json:"id"`
	EventName  string  `json:"event"`
	LegacyType string  `json:"type"`
	Payload    Payload `json:"payload"`
	raw        []byte
}

// Type returns the event discriminator, whichever field carried it.
func (e *Event) Type() string {
	if e.EventName != "" {
		return e.EventName
	}
	return e.LegacyType
}

// LedgerKey identifies the delivery for idempotency. Providers that omit a
// top-level id are keyed by the appointment reference instead.
func (e *Event) LedgerKey() string {
	if e.ID != "" {
		return e.ID
	}
	return e.Payload.EventRef
}

// Payload describes the scheduled visit. EventRef is the provider's stable
// reference for the appointment and keys the booking upsert.
type Payload struct {
	EventRef    string         `json:"event_ref"`
	ServiceType string         `json:"service_type"`
	Email       string         `json:"email"`
	Name        string         `json:"name"`
	StartTime   *time.Time     `json:"start_time"`
	EndTime     *time.Time     `json:"end_time"`
	Address     *types.Address `json:"address,omitempty"`
}

// ParseEvent decodes the raw body, keeping the original bytes for the ledger.
func ParseEvent(body []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode scheduling event")
	}
	if event.Type() == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scheduling event type required")
	}
	if event.LedgerKey() == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scheduling event id or payload event_ref required")
	}
	event.raw = body
	return &event, nil
}

// Outcome reports how an event was handled.
type Outcome struct {
	Duplicate bool
	Orphaned  bool
}

// Service processes scheduling provider events. The idempotency ordering here
// is insert-first: the ledger entry is written before any processing, so a
// concurrent duplicate delivery skips cleanly. A crash after the insert means
// the event is never retried, which is acceptable for scheduling data because
// failures are logged and the provider's dashboard remains the source of
// truth for reconciliation.
type Service struct {
	ledger   ledger.Service
	bookings bookings.Service
	logg     *logger.Logger
}

// ServiceParams lists scheduling webhook dependencies.
type ServiceParams struct {
	Ledger   ledger.Service
	Bookings bookings.Service
	Logger   *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "ledger service required")
	}
	if params.Bookings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "bookings service required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &Service{
		ledger:   params.Ledger,
		bookings: params.Bookings,
		logg:     params.Logger,
	}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event *Event) (*Outcome, error) {
	if event == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scheduling event required")
	}

	duplicate, err := s.ledger.RecordProcessed(ctx, nil, ledger.RecordInput{
		EventID:   event.LedgerKey(),
		Source:    enums.EventSourceScheduling,
		EventType: event.Type(),
		Payload:   event.raw,
	})
	if err != nil {
		return nil, err
	}
	if duplicate {
		return &Outcome{Duplicate: true}, nil
	}

	switch event.Type() {
	case EventTypeInviteeCreated:
		serviceType, err := enums.ParseServiceType(event.Payload.ServiceType)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "scheduling event service type")
		}
		result, err := s.bookings.CreateOrUpdateFromSchedulingEvent(ctx, bookings.SchedulingBookingInput{
			Email:       event.Payload.Email,
			Name:        event.Payload.Name,
			ExternalRef: event.Payload.EventRef,
			ServiceType: serviceType,
			Start:       event.Payload.StartTime,
			End:         event.Payload.EndTime,
			Address:     event.Payload.Address,
		})
		if err != nil {
			return nil, err
		}
		return &Outcome{Orphaned: result.Orphaned}, nil
	case EventTypeInviteeCanceled:
		result, err := s.bookings.CancelFromSchedulingEvent(ctx, event.Payload.EventRef)
		if err != nil {
			return nil, err
		}
		return &Outcome{Orphaned: result.Orphaned}, nil
	default:
		// Unknown types were already recorded above, so redeliveries of
		// them resolve as duplicates.
		s.logg.Info(s.logg.WithEventID(ctx, event.LedgerKey()), "ignoring unhandled scheduling event type")
		return &Outcome{}, nil
	}
}
