package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/stashspot/stashspot-backend/internal/bookings"
	"github.com/stashspot/stashspot-backend/pkg/db/models"
	"github.com/stashspot/stashspot-backend/pkg/enums"
	"github.com/stashspot/stashspot-backend/pkg/logger"
)

type stubCompleteService struct {
	result *bookings.CompleteResult
	err    error
	calls  []uuid.UUID
}

func (s *stubCompleteService) Complete(ctx context.Context, bookingID uuid.UUID) (*bookings.CompleteResult, error) {
	s.calls = append(s.calls, bookingID)
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubCompleteService) CreateOrUpdateFromSchedulingEvent(ctx context.Context, input bookings.SchedulingBookingInput) (*bookings.SchedulingBookingResult, error) {
	panic("unimplemented")
}

func (s *stubCompleteService) CancelFromSchedulingEvent(ctx context.Context, externalRef string) (*bookings.SchedulingCancelResult, error) {
	panic("unimplemented")
}

func (s *stubCompleteService) SelectItems(ctx context.Context, input bookings.SelectItemsInput) (*bookings.SelectItemsResult, error) {
	panic("unimplemented")
}

func (s *stubCompleteService) CustomerCancel(ctx context.Context, bookingID, customerID uuid.UUID) (*bookings.CancelResult, error) {
	panic("unimplemented")
}

func (s *stubCompleteService) List(ctx context.Context, params bookings.ListParams) (*bookings.ListResult, error) {
	panic("unimplemented")
}

func (s *stubCompleteService) Get(ctx context.Context, bookingID, customerID uuid.UUID) (*models.Booking, error) {
	panic("unimplemented")
}

func TestStaffCompleteReturnsBookingProjection(t *testing.T) {
	bookingID := uuid.New()
	completedAt := time.Now().UTC()
	svc := &stubCompleteService{result: &bookings.CompleteResult{
		Booking: &models.Booking{
			ID:          bookingID,
			ServiceType: enums.ServiceTypePickup,
			Status:      enums.BookingStatusCompleted,
			CompletedAt: &completedAt,
		},
		ItemsUpdated: 3,
	}}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	handler := StaffComplete(svc, logg)

	body := bytes.NewBufferString(fmt.Sprintf(`{"action_id":%q}`, bookingID))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/staff/complete", body)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data struct {
			OK           bool        `json:"ok"`
			Action       bookingView `json:"action"`
			ItemsUpdated int         `json:"items_updated"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Data.OK || envelope.Data.ItemsUpdated != 3 {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
	if envelope.Data.Action.ID != bookingID || envelope.Data.Action.Status != string(enums.BookingStatusCompleted) {
		t.Fatalf("expected the completed booking projection, got %+v", envelope.Data.Action)
	}
	if len(svc.calls) != 1 || svc.calls[0] != bookingID {
		t.Fatalf("unexpected service calls %v", svc.calls)
	}
}

func TestStaffCompleteAlreadyCompleted(t *testing.T) {
	svc := &stubCompleteService{result: &bookings.CompleteResult{AlreadyCompleted: true}}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	handler := StaffComplete(svc, logg)

	body := bytes.NewBufferString(fmt.Sprintf(`{"action_id":%q}`, uuid.New()))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/staff/complete", body)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data["already_completed"] != true {
		t.Fatalf("expected already_completed, got %s", rec.Body.String())
	}
	if _, present := envelope.Data["action"]; present {
		t.Fatalf("no projection expected on replay, got %s", rec.Body.String())
	}
}
