package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stashspot/stashspot-backend/api/middleware"
	"github.com/stashspot/stashspot-backend/api/responses"
	"github.com/stashspot/stashspot-backend/api/validators"
	"github.com/stashspot/stashspot-backend/internal/bookings"
	"github.com/stashspot/stashspot-backend/pkg/db/models"
	pkgerrors "github.com/stashspot/stashspot-backend/pkg/errors"
	"github.com/stashspot/stashspot-backend/pkg/logger"
	"github.com/stashspot/stashspot-backend/pkg/types"
)

type selectItemsRequest struct {
	BookingID       uuid.UUID   `json:"booking_id" validate:"required"`
	SelectedItemIDs []uuid.UUID `json:"selected_item_ids" validate:"required"`
}

type cancelBookingRequest struct {
	BookingID uuid.UUID `json:"booking_id" validate:"required"`
}

// bookingView is the portal projection of a booking.
type bookingView struct {
	ID              uuid.UUID      `json:"id"`
	ServiceType     string         `json:"service_type"`
	Status          string         `json:"status"`
	ScheduledStart  *time.Time     `json:"scheduled_start,omitempty"`
	ScheduledEnd    *time.Time     `json:"scheduled_end,omitempty"`
	PickupItemIDs   []uuid.UUID    `json:"pickup_item_ids"`
	DeliveryItemIDs []uuid.UUID    `json:"delivery_item_ids"`
	ServiceAddress  *types.Address `json:"service_address,omitempty"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

func newBookingView(booking *models.Booking) bookingView {
	view := bookingView{
		ID:              booking.ID,
		ServiceType:     string(booking.ServiceType),
		Status:          string(booking.Status),
		ScheduledStart:  booking.ScheduledStart,
		ScheduledEnd:    booking.ScheduledEnd,
		PickupItemIDs:   []uuid.UUID(booking.PickupItemIDs),
		DeliveryItemIDs: []uuid.UUID(booking.DeliveryItemIDs),
		ServiceAddress:  booking.ServiceAddress,
		CompletedAt:     booking.CompletedAt,
		CreatedAt:       booking.CreatedAt,
	}
	if view.PickupItemIDs == nil {
		view.PickupItemIDs = []uuid.UUID{}
	}
	if view.DeliveryItemIDs == nil {
		view.DeliveryItemIDs = []uuid.UUID{}
	}
	return view
}

// SelectItems applies the caller's candidate item set to a booking.
func SelectItems(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		customerID, err := callerCustomerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req selectItemsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SelectItems(r.Context(), bookings.SelectItemsInput{
			BookingID:  req.BookingID,
			CustomerID: customerID,
			ItemIDs:    req.SelectedItemIDs,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"ok":      true,
			"booking": newBookingView(result.Booking),
			"summary": map[string]int{
				"pickup_items":   result.PickupItems,
				"delivery_items": result.DeliveryItems,
			},
		})
	}
}

// CancelBooking cancels one of the caller's bookings. A repeat call on an
// already-canceled booking still returns 200.
func CancelBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		customerID, err := callerCustomerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req cancelBookingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CustomerCancel(r.Context(), req.BookingID, customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := map[string]any{"ok": true, "status": "canceled"}
		if result.AlreadyCanceled {
			payload["already_canceled"] = true
		}
		responses.WriteSuccess(w, payload)
	}
}

// ListBookings returns the caller's bookings, newest first.
func ListBookings(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		customerID, err := callerCustomerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := bookings.ListParams{CustomerID: customerID}
		if limitStr := strings.TrimSpace(r.URL.Query().Get("limit")); limitStr != "" {
			value, err := strconv.Atoi(limitStr)
			if err != nil || value <= 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a positive integer"))
				return
			}
			params.Limit = value
		}
		params.Cursor = strings.TrimSpace(r.URL.Query().Get("cursor"))
		params.Status = strings.TrimSpace(r.URL.Query().Get("status"))

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]bookingView, 0, len(result.Bookings))
		for i := range result.Bookings {
			views = append(views, newBookingView(&result.Bookings[i]))
		}
		responses.WriteSuccess(w, map[string]any{
			"bookings": views,
			"cursor":   result.Cursor,
		})
	}
}

// GetBooking returns one of the caller's bookings.
func GetBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		customerID, err := callerCustomerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bookingID, err := uuid.Parse(chi.URLParam(r, "bookingId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid booking id"))
			return
		}

		booking, err := svc.Get(r.Context(), bookingID, customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newBookingView(booking))
	}
}

func callerCustomerID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.CustomerIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid customer id")
	}
	return id, nil
}
