package audit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stashspot/stashspot-backend/pkg/db/models"
	"github.com/stashspot/stashspot-backend/pkg/enums"
	pkgerrors "github.com/stashspot/stashspot-backend/pkg/errors"
	"github.com/stashspot/stashspot-backend/pkg/logger"
)

type stubAuditRepo struct {
	events    []*models.BookingEvent
	createErr error
	txSeen    bool
}

func (s *stubAuditRepo) WithTx(tx *gorm.DB) Repository {
	if tx != nil {
		s.txSeen = true
	}
	return s
}

func (s *stubAuditRepo) Create(ctx context.Context, event *models.BookingEvent) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.events = append(s.events, event)
	return nil
}

func newAuditService(t *testing.T, repo *stubAuditRepo) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:   repo,
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func TestRecordAppendsEventWithMetadata(t *testing.T) {
	repo := &stubAuditRepo{}
	svc := newAuditService(t, repo)
	bookingID := uuid.New()

	err := svc.Record(context.Background(), nil, Entry{
		BookingID: &bookingID,
		EventType: enums.BookingEventCompleted,
		Metadata:  map[string]any{"items_updated": 3},
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(repo.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(repo.events))
	}
	event := repo.events[0]
	if event.BookingID == nil || *event.BookingID != bookingID {
		t.Fatal("booking id not preserved")
	}
	if event.EventType != enums.BookingEventCompleted {
		t.Fatalf("unexpected event type %s", event.EventType)
	}

	var meta map[string]any
	if err := json.Unmarshal(event.Metadata, &meta); err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	if meta["items_updated"] != float64(3) {
		t.Fatalf("unexpected metadata %v", meta)
	}
}

func TestRecordAllowsOrphanEvents(t *testing.T) {
	repo := &stubAuditRepo{}
	svc := newAuditService(t, repo)

	err := svc.Record(context.Background(), nil, Entry{
		EventType: enums.BookingEventOrphanPayment,
		Metadata:  map[string]any{"event_id": "evt_123"},
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if repo.events[0].BookingID != nil {
		t.Fatal("orphan events must not carry a booking id")
	}
}

func TestRecordWrapsRepoFailure(t *testing.T) {
	repo := &stubAuditRepo{createErr: errors.New("insert failed")}
	svc := newAuditService(t, repo)

	err := svc.Record(context.Background(), nil, Entry{EventType: enums.BookingEventCustomerCanceled})
	if err == nil {
		t.Fatal("expected error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestTryRecordSwallowsFailure(t *testing.T) {
	repo := &stubAuditRepo{createErr: errors.New("insert failed")}
	svc := newAuditService(t, repo)

	// must not panic or propagate
	svc.TryRecord(context.Background(), nil, Entry{EventType: enums.BookingEventCustomerCanceled})
}
