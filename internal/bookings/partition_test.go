package bookings

import (
	"testing"

	"github.com/google/uuid"

	"github.com/stashspot/stashspot-backend/pkg/db/models"
	dbtypes "github.com/stashspot/stashspot-backend/pkg/db/types"
	"github.com/stashspot/stashspot-backend/pkg/enums"
)

func item(id uuid.UUID, status enums.ItemStatus) models.Item {
	return models.Item{ID: id, Status: status}
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func TestPartitionSplitsByStatus(t *testing.T) {
	home := uuid.New()
	stored := uuid.New()

	result := Partition(PartitionInput{
		Candidates: []models.Item{
			item(home, enums.ItemStatusHome),
			item(stored, enums.ItemStatusStored),
		},
	})

	if len(result.Pickup) != 1 || result.Pickup[0] != home {
		t.Fatalf("expected home item in pickup, got %v", result.Pickup)
	}
	if len(result.Delivery) != 1 || result.Delivery[0] != stored {
		t.Fatalf("expected stored item in delivery, got %v", result.Delivery)
	}
	if len(result.SetScheduled) != 2 {
		t.Fatalf("expected both items newly scheduled, got %v", result.SetScheduled)
	}
	if len(result.RevertToHome) != 0 || len(result.RevertToStore) != 0 || len(result.Skipped) != 0 {
		t.Fatalf("unexpected side effects %+v", result)
	}
}

func TestPartitionKeepsScheduledDirection(t *testing.T) {
	pickupItem := uuid.New()
	deliveryItem := uuid.New()

	result := Partition(PartitionInput{
		PrevPickup:   dbtypes.UUIDArray{pickupItem},
		PrevDelivery: dbtypes.UUIDArray{deliveryItem},
		Candidates: []models.Item{
			item(pickupItem, enums.ItemStatusScheduled),
			item(deliveryItem, enums.ItemStatusScheduled),
		},
	})

	if !result.Pickup.Contains(pickupItem) {
		t.Fatalf("expected scheduled pickup item to stay in pickup, got %v", result.Pickup)
	}
	if !result.Delivery.Contains(deliveryItem) {
		t.Fatalf("expected scheduled delivery item to stay in delivery, got %v", result.Delivery)
	}
	if len(result.SetScheduled) != 0 {
		t.Fatalf("already scheduled items should not be re-marked, got %v", result.SetScheduled)
	}
}

func TestPartitionRevertsRemovedItems(t *testing.T) {
	removedPickup := uuid.New()
	removedDelivery := uuid.New()
	kept := uuid.New()

	result := Partition(PartitionInput{
		PrevPickup:   dbtypes.UUIDArray{removedPickup, kept},
		PrevDelivery: dbtypes.UUIDArray{removedDelivery},
		Candidates: []models.Item{
			item(kept, enums.ItemStatusScheduled),
		},
	})

	if !containsID(result.RevertToHome, removedPickup) {
		t.Fatalf("expected removed pickup item reverted to home, got %v", result.RevertToHome)
	}
	if !containsID(result.RevertToStore, removedDelivery) {
		t.Fatalf("expected removed delivery item reverted to stored, got %v", result.RevertToStore)
	}
	if containsID(result.RevertToHome, kept) {
		t.Fatalf("kept item must not be reverted, got %v", result.RevertToHome)
	}
}

func TestPartitionSkipsInconsistentScheduledItem(t *testing.T) {
	orphan := uuid.New()

	result := Partition(PartitionInput{
		Candidates: []models.Item{
			item(orphan, enums.ItemStatusScheduled),
		},
	})

	if len(result.Skipped) != 1 || result.Skipped[0] != orphan {
		t.Fatalf("expected scheduled item without prior direction skipped, got %+v", result)
	}
	if len(result.Pickup) != 0 || len(result.Delivery) != 0 {
		t.Fatalf("skipped item must not be assigned, got %+v", result)
	}
}

func TestPartitionIsIdempotent(t *testing.T) {
	home := uuid.New()
	stored := uuid.New()

	input := PartitionInput{
		PrevPickup:   dbtypes.UUIDArray{home},
		PrevDelivery: dbtypes.UUIDArray{stored},
		Candidates: []models.Item{
			item(home, enums.ItemStatusScheduled),
			item(stored, enums.ItemStatusScheduled),
		},
	}

	first := Partition(input)
	second := Partition(PartitionInput{
		PrevPickup:   first.Pickup,
		PrevDelivery: first.Delivery,
		Candidates:   input.Candidates,
	})

	if len(second.SetScheduled) != 0 || len(second.RevertToHome) != 0 || len(second.RevertToStore) != 0 {
		t.Fatalf("second run should be side-effect free, got %+v", second)
	}
	if !second.Pickup.Contains(home) || !second.Delivery.Contains(stored) {
		t.Fatalf("second run changed the assignment: %+v", second)
	}
}
