package paymentswebhook

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stashspot/stashspot-backend/internal/audit"
	"github.com/stashspot/stashspot-backend/internal/customers"
	"github.com/stashspot/stashspot-backend/internal/ledger"
	"github.com/stashspot/stashspot-backend/pkg/db/models"
	"github.com/stashspot/stashspot-backend/pkg/enums"
	pkgerrors "github.com/stashspot/stashspot-backend/pkg/errors"
	"github.com/stashspot/stashspot-backend/pkg/logger"
)

type stubLedger struct {
	seen        bool
	checkErr    error
	recorded    []ledger.RecordInput
	recordedDup bool
}

func (s *stubLedger) HasBeenProcessed(ctx context.Context, eventID string) (bool, error) {
	return s.seen, s.checkErr
}

func (s *stubLedger) RecordProcessed(ctx context.Context, tx *gorm.DB, input ledger.RecordInput) (bool, error) {
	s.recorded = append(s.recorded, input)
	return s.recordedDup, nil
}

func (s *stubLedger) PurgeOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	return 0, nil
}

type stubCustomers struct {
	applied  []customers.SubscriptionInput
	applyErr error
}

func (s *stubCustomers) Get(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCustomers) ResolveByEmail(ctx context.Context, tx *gorm.DB, email, name string) (*models.Customer, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCustomers) ApplySubscription(ctx context.Context, tx *gorm.DB, input customers.SubscriptionInput) (*models.Customer, error) {
	if s.applyErr != nil {
		return nil, s.applyErr
	}
	s.applied = append(s.applied, input)
	return &models.Customer{ID: uuid.New(), SubscriptionStatus: input.Status}, nil
}

type recordingAudit struct {
	entries []audit.Entry
}

func (r *recordingAudit) Record(ctx context.Context, tx *gorm.DB, entry audit.Entry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *recordingAudit) TryRecord(ctx context.Context, tx *gorm.DB, entry audit.Entry) {
	r.entries = append(r.entries, entry)
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newService(t *testing.T, ledgerStub *stubLedger, customersStub *stubCustomers, auditStub *recordingAudit) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Ledger:    ledgerStub,
		Customers: customersStub,
		Audit:     auditStub,
		Tx:        stubTxRunner{},
		Logger:    logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return svc
}

func TestParseEventRequiresIDAndType(t *testing.T) {
	if _, err := ParseEvent([]byte(`{"id":"evt-1"}`)); err == nil {
		t.Fatal("expected error for missing type")
	}
	if _, err := ParseEvent([]byte(`not json`)); err == nil {
		t.Fatal("expected error for invalid json")
	}
	event, err := ParseEvent([]byte(`{"id":"evt-1","type":"invoice.payment_succeeded","data":{"customer":"cus_1"}}`))
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if event.ID != "evt-1" || event.Type != "invoice.payment_succeeded" {
		t.Fatalf("unexpected event %+v", event)
	}
}

func TestHandleEventAppliesSubscription(t *testing.T) {
	ledgerStub := &stubLedger{}
	customersStub := &stubCustomers{}
	auditStub := &recordingAudit{}
	svc := newService(t, ledgerStub, customersStub, auditStub)

	event, _ := ParseEvent([]byte(`{"id":"evt-1","type":"invoice.payment_succeeded","data":{"customer":"cus_1","customer_email":"kim@example.com"}}`))
	outcome, err := svc.HandleEvent(context.Background(), event)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if outcome.Duplicate || outcome.Orphaned {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if len(customersStub.applied) != 1 {
		t.Fatalf("expected one subscription apply, got %d", len(customersStub.applied))
	}
	applied := customersStub.applied[0]
	if applied.PaymentRef != "cus_1" || applied.Status != enums.SubscriptionStatusActive {
		t.Fatalf("unexpected subscription input %+v", applied)
	}
	if len(ledgerStub.recorded) != 1 || ledgerStub.recorded[0].EventID != "evt-1" {
		t.Fatalf("expected ledger record after success, got %+v", ledgerStub.recorded)
	}
}

func TestHandleEventDuplicateSkipsProcessing(t *testing.T) {
	ledgerStub := &stubLedger{seen: true}
	customersStub := &stubCustomers{}
	svc := newService(t, ledgerStub, customersStub, &recordingAudit{})

	event, _ := ParseEvent([]byte(`{"id":"evt-1","type":"invoice.payment_succeeded","data":{"customer":"cus_1"}}`))
	outcome, err := svc.HandleEvent(context.Background(), event)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if !outcome.Duplicate {
		t.Fatal("expected duplicate outcome")
	}
	if len(customersStub.applied) != 0 {
		t.Fatal("duplicate must not be processed")
	}
	if len(ledgerStub.recorded) != 0 {
		t.Fatal("duplicate must not re-record")
	}
}

func TestHandleEventLedgerCheckFailureProcessesAnyway(t *testing.T) {
	ledgerStub := &stubLedger{checkErr: errors.New("redis down")}
	customersStub := &stubCustomers{}
	svc := newService(t, ledgerStub, customersStub, &recordingAudit{})

	event, _ := ParseEvent([]byte(`{"id":"evt-2","type":"invoice.payment_failed","data":{"customer":"cus_2"}}`))
	outcome, err := svc.HandleEvent(context.Background(), event)
	if err != nil {
		t.Fatalf("ledger check failure must not drop the event, got %v", err)
	}
	if outcome.Duplicate {
		t.Fatalf("unexpected duplicate outcome %+v", outcome)
	}
	if len(customersStub.applied) != 1 {
		t.Fatal("expected event processed despite check failure")
	}
	if customersStub.applied[0].Status != enums.SubscriptionStatusPastDue {
		t.Fatalf("expected past_due, got %s", customersStub.applied[0].Status)
	}
}

func TestHandleEventUnknownCustomerOrphans(t *testing.T) {
	ledgerStub := &stubLedger{}
	customersStub := &stubCustomers{applyErr: pkgerrors.New(pkgerrors.CodeNotFound, "no customer for payment ref")}
	auditStub := &recordingAudit{}
	svc := newService(t, ledgerStub, customersStub, auditStub)

	event, _ := ParseEvent([]byte(`{"id":"evt-3","type":"customer.subscription.deleted","data":{"customer":"cus_3"}}`))
	outcome, err := svc.HandleEvent(context.Background(), event)
	if err != nil {
		t.Fatalf("orphan event must ack, got %v", err)
	}
	if !outcome.Orphaned {
		t.Fatal("expected orphan outcome")
	}
	if len(auditStub.entries) != 1 || auditStub.entries[0].EventType != enums.BookingEventOrphanPayment {
		t.Fatalf("expected orphan audit entry, got %+v", auditStub.entries)
	}
	if len(ledgerStub.recorded) != 1 {
		t.Fatal("orphan events are still recorded")
	}
}

func TestHandleEventUnknownTypeRecordedAndAcked(t *testing.T) {
	ledgerStub := &stubLedger{}
	customersStub := &stubCustomers{}
	svc := newService(t, ledgerStub, customersStub, &recordingAudit{})

	event, _ := ParseEvent([]byte(`{"id":"evt-4","type":"charge.refunded","data":{}}`))
	outcome, err := svc.HandleEvent(context.Background(), event)
	if err != nil {
		t.Fatalf("unknown types must ack, got %v", err)
	}
	if outcome.Duplicate || outcome.Orphaned {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if len(customersStub.applied) != 0 {
		t.Fatal("unknown type must not touch customers")
	}
	if len(ledgerStub.recorded) != 1 {
		t.Fatal("unknown types are recorded to stop redeliveries")
	}
}

func TestHandleEventSubscriptionUpdatedUsesPayloadStatus(t *testing.T) {
	ledgerStub := &stubLedger{}
	customersStub := &stubCustomers{}
	svc := newService(t, ledgerStub, customersStub, &recordingAudit{})

	event, _ := ParseEvent([]byte(`{"id":"evt-5","type":"customer.subscription.updated","data":{"customer":"cus_5","status":"unpaid"}}`))
	if _, err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if customersStub.applied[0].Status != enums.SubscriptionStatusPastDue {
		t.Fatalf("expected unpaid mapped to past_due, got %s", customersStub.applied[0].Status)
	}

	bad, _ := ParseEvent([]byte(`{"id":"evt-6","type":"customer.subscription.updated","data":{"customer":"cus_6","status":"mystery"}}`))
	if _, err := svc.HandleEvent(context.Background(), bad); err == nil {
		t.Fatal("expected error for unknown provider status")
	}
}

func TestHandleEventConcurrentRecordReportsDuplicate(t *testing.T) {
	ledgerStub := &stubLedger{recordedDup: true}
	customersStub := &stubCustomers{}
	svc := newService(t, ledgerStub, customersStub, &recordingAudit{})

	event, _ := ParseEvent([]byte(`{"id":"evt-7","type":"checkout.session.completed","data":{"customer":"cus_7"}}`))
	outcome, err := svc.HandleEvent(context.Background(), event)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if !outcome.Duplicate {
		t.Fatal("losing the record race must surface as duplicate")
	}
}
