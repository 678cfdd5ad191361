package paymentswebhook

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"github.com/stashspot/stashspot-backend/internal/audit"
	"github.com/stashspot/stashspot-backend/internal/customers"
	"github.com/stashspot/stashspot-backend/internal/ledger"
	"github.com/stashspot/stashspot-backend/pkg/enums"
	pkgerrors "github.com/stashspot/stashspot-backend/pkg/errors"
	"github.com/stashspot/stashspot-backend/pkg/logger"
)

// Event is the payment provider's webhook envelope.
type Event struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
	raw  []byte
}

// ParseEvent decodes the raw body, keeping the original bytes for the ledger.
func ParseEvent(body []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment event")
	}
	if event.ID == "" || event.Type == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment event id and type required")
	}
	event.raw = body
	return &event, nil
}

// subscriptionObject is the provider object carried by every event type this
// service consumes.
type subscriptionObject struct {
	Customer      string `json:"customer"`
	CustomerEmail string `json:"customer_email"`
	Status        string `json:"status"`
}

// Outcome reports how an event was handled.
type Outcome struct {
	Duplicate bool
	Orphaned  bool
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service processes payment provider events. The idempotency ordering here is
// check, process, record: the ledger entry is written only after the handler
// succeeds, so a crashed delivery is retried from scratch. A ledger check
// failure is logged and processing continues; dropping a financial event
// permanently is worse than the rare double-processing of an idempotent
// upsert.
type Service struct {
	ledger    ledger.Service
	customers customers.Service
	audit     audit.Service
	tx        txRunner
	logg      *logger.Logger
}

// ServiceParams lists payment webhook dependencies.
type ServiceParams struct {
	Ledger    ledger.Service
	Customers customers.Service
	Audit     audit.Service
	Tx        txRunner
	Logger    *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "ledger service required")
	}
	if params.Customers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "customers service required")
	}
	if params.Audit == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "audit service required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &Service{
		ledger:    params.Ledger,
		customers: params.Customers,
		audit:     params.Audit,
		tx:        params.Tx,
		logg:      params.Logger,
	}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event *Event) (*Outcome, error) {
	if event == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment event required")
	}

	seen, err := s.ledger.HasBeenProcessed(ctx, event.ID)
	if err != nil {
		s.logg.Error(s.logg.WithEventID(ctx, event.ID), "ledger check failed, processing anyway", err)
	} else if seen {
		return &Outcome{Duplicate: true}, nil
	}

	status, relevant := subscriptionStatusFor(event.Type)
	if !relevant {
		// Unknown types are acknowledged and recorded so redeliveries of
		// them stop immediately.
		return s.record(ctx, event, &Outcome{})
	}

	var object subscriptionObject
	if len(event.Data) > 0 {
		if err := json.Unmarshal(event.Data, &object); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment event object")
		}
	}
	if object.Customer == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment event customer reference required")
	}
	if status == "" {
		parsed, ok := parseProviderStatus(object.Status)
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown subscription status")
		}
		status = parsed
	}

	outcome := &Outcome{}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := s.customers.ApplySubscription(ctx, tx, customers.SubscriptionInput{
			PaymentRef: object.Customer,
			Email:      object.CustomerEmail,
			Status:     status,
		})
		if err != nil {
			if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
				outcome.Orphaned = true
				s.audit.TryRecord(ctx, tx, audit.Entry{
					EventType: enums.BookingEventOrphanPayment,
					Metadata: map[string]any{
						"event_id":    event.ID,
						"event_type":  event.Type,
						"payment_ref": object.Customer,
					},
				})
				return nil
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.record(ctx, event, outcome)
}

func (s *Service) record(ctx context.Context, event *Event, outcome *Outcome) (*Outcome, error) {
	duplicate, err := s.ledger.RecordProcessed(ctx, nil, ledger.RecordInput{
		EventID:   event.ID,
		Source:    enums.EventSourcePayments,
		EventType: event.Type,
		Payload:   event.raw,
	})
	if err != nil {
		return nil, err
	}
	if duplicate {
		// A concurrent delivery finished first; the work this call did was
		// an idempotent repeat of the winner's.
		outcome.Duplicate = true
	}
	return outcome, nil
}

// subscriptionStatusFor maps event types whose meaning is fixed; the empty
// status with relevant=true means "take the status from the payload".
func subscriptionStatusFor(eventType string) (enums.SubscriptionStatus, bool) {
	switch eventType {
	case "checkout.session.completed", "invoice.payment_succeeded":
		return enums.SubscriptionStatusActive, true
	case "invoice.payment_failed":
		return enums.SubscriptionStatusPastDue, true
	case "customer.subscription.deleted":
		return enums.SubscriptionStatusCanceled, true
	case "customer.subscription.created", "customer.subscription.updated":
		return "", true
	default:
		return "", false
	}
}

func parseProviderStatus(value string) (enums.SubscriptionStatus, bool) {
	switch value {
	case "active", "trialing":
		return enums.SubscriptionStatusActive, true
	case "past_due", "unpaid":
		return enums.SubscriptionStatusPastDue, true
	case "canceled", "incomplete_expired":
		return enums.SubscriptionStatusCanceled, true
	default:
		return "", false
	}
}
