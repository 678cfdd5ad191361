package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/stashspot/stashspot-backend/pkg/db/types"
	"github.com/stashspot/stashspot-backend/pkg/enums"
	"github.com/stashspot/stashspot-backend/pkg/types"
)

// Booking represents one scheduled pickup or delivery visit and its item claims.
// ExternalEventRef is unique so repeated scheduling deliveries upsert instead of
// duplicating; PickupItemIDs and DeliveryItemIDs are kept disjoint by the
// selection service.
type Booking struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID       uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	ServiceType      enums.ServiceType   `gorm:"column:service_type;type:text;not null"`
	Status           enums.BookingStatus `gorm:"column:status;type:text;not null;default:'pending_items'"`
	ScheduledStart   *time.Time          `gorm:"column:scheduled_start"`
	ScheduledEnd     *time.Time          `gorm:"column:scheduled_end"`
	PickupItemIDs    dbtypes.UUIDArray   `gorm:"column:pickup_item_ids;type:uuid[]"`
	DeliveryItemIDs  dbtypes.UUIDArray   `gorm:"column:delivery_item_ids;type:uuid[]"`
	ExternalEventRef string              `gorm:"column:external_event_ref;not null;uniqueIndex"`
	ServiceAddress   *types.Address      `gorm:"column:service_address;type:jsonb;serializer:json"`
	CompletedAt      *time.Time          `gorm:"column:completed_at"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
