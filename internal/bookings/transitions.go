package bookings

import (
	"fmt"

	"github.com/stashspot/stashspot-backend/pkg/enums"
	pkgerrors "github.com/stashspot/stashspot-backend/pkg/errors"
)

// allowedTransitions is the booking lifecycle. The pending_confirmation
// self-loop exists only for item-selection edits; in_progress is reserved for
// a future staff flow but completion already accepts it as a source state.
// Scheduling-provider cancellations bypass this table entirely.
var allowedTransitions = map[enums.BookingStatus][]enums.BookingStatus{
	enums.BookingStatusPendingItems: {
		enums.BookingStatusPendingConfirmation,
		enums.BookingStatusCanceled,
	},
	enums.BookingStatusPendingConfirmation: {
		enums.BookingStatusPendingConfirmation,
		enums.BookingStatusConfirmed,
		enums.BookingStatusCanceled,
	},
	enums.BookingStatusConfirmed: {
		enums.BookingStatusInProgress,
		enums.BookingStatusCompleted,
		enums.BookingStatusCanceled,
	},
	enums.BookingStatusInProgress: {
		enums.BookingStatusCompleted,
		enums.BookingStatusCanceled,
	},
	enums.BookingStatusCompleted: {},
	enums.BookingStatusCanceled:  {},
}

// CanTransition reports whether from→to appears in the lifecycle table.
func CanTransition(from, to enums.BookingStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// EnsureTransition returns a state-conflict error naming the rejected pair.
func EnsureTransition(from, to enums.BookingStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	return pkgerrors.New(
		pkgerrors.CodeStateConflict,
		fmt.Sprintf("invalid booking transition from %s to %s", from, to),
	)
}
