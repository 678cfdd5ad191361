package bookings

import (
	"github.com/google/uuid"

	"github.com/stashspot/stashspot-backend/pkg/db/models"
	dbtypes "github.com/stashspot/stashspot-backend/pkg/db/types"
	"github.com/stashspot/stashspot-backend/pkg/enums"
)

// PartitionInput carries a booking's previous item assignment and the fresh
// reads of the candidate items. Candidates must already be ownership-scoped;
// the partitioner trusts the rows it is handed.
type PartitionInput struct {
	PrevPickup   dbtypes.UUIDArray
	PrevDelivery dbtypes.UUIDArray
	Candidates   []models.Item
}

// PartitionResult is the new assignment plus the item status side effects the
// caller must persist. Skipped holds scheduled items found in neither previous
// set, which is inconsistent data the caller should flag rather than guess at.
type PartitionResult struct {
	Pickup   dbtypes.UUIDArray
	Delivery dbtypes.UUIDArray

	SetScheduled  []uuid.UUID
	RevertToHome  []uuid.UUID
	RevertToStore []uuid.UUID
	Skipped       []uuid.UUID
}

// Partition computes the new pickup/delivery split for a candidate set.
// Items at home go to pickup, stored items go to delivery, items already
// scheduled by this booking keep their previous direction. Running the same
// candidate set twice yields an identical result with no side effects.
func Partition(input PartitionInput) PartitionResult {
	result := PartitionResult{}

	for _, item := range input.Candidates {
		switch item.Status {
		case enums.ItemStatusHome:
			result.Pickup = append(result.Pickup, item.ID)
		case enums.ItemStatusStored:
			result.Delivery = append(result.Delivery, item.ID)
		case enums.ItemStatusScheduled:
			switch {
			case input.PrevPickup.Contains(item.ID):
				result.Pickup = append(result.Pickup, item.ID)
			case input.PrevDelivery.Contains(item.ID):
				result.Delivery = append(result.Delivery, item.ID)
			default:
				result.Skipped = append(result.Skipped, item.ID)
			}
		}
	}

	for _, id := range result.Pickup {
		if !input.PrevPickup.Contains(id) && !input.PrevDelivery.Contains(id) {
			result.SetScheduled = append(result.SetScheduled, id)
		}
	}
	for _, id := range result.Delivery {
		if !input.PrevPickup.Contains(id) && !input.PrevDelivery.Contains(id) {
			result.SetScheduled = append(result.SetScheduled, id)
		}
	}

	for _, id := range input.PrevPickup {
		if !result.Pickup.Contains(id) {
			result.RevertToHome = append(result.RevertToHome, id)
		}
	}
	for _, id := range input.PrevDelivery {
		if !result.Delivery.Contains(id) {
			result.RevertToStore = append(result.RevertToStore, id)
		}
	}

	return result
}
