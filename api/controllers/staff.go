package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/stashspot/stashspot-backend/api/responses"
	"github.com/stashspot/stashspot-backend/api/validators"
	"github.com/stashspot/stashspot-backend/internal/bookings"
	pkgerrors "github.com/stashspot/stashspot-backend/pkg/errors"
	"github.com/stashspot/stashspot-backend/pkg/logger"
)

type completeRequest struct {
	ActionID uuid.UUID `json:"action_id" validate:"required"`
}

// StaffComplete marks a visit done. A lost race against a concurrent
// completion still returns 200 with already_completed set; the winning call
// is the only one that triggered a notification.
func StaffComplete(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		var req completeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Complete(r.Context(), req.ActionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if result.AlreadyCompleted {
			responses.WriteSuccess(w, map[string]any{
				"ok":                true,
				"already_completed": true,
			})
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"ok":            true,
			"action":        newBookingView(result.Booking),
			"items_updated": result.ItemsUpdated,
		})
	}
}
