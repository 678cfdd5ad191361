package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/stashspot/stashspot-backend/pkg/enums"
)

// BookingEvent is the append-only audit log for booking lifecycle changes.
// BookingID is nullable for orphan events that could not be correlated to a
// booking. Rows are never mutated or read by business logic.
type BookingEvent struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BookingID *uuid.UUID             `gorm:"column:booking_id;type:uuid;index"`
	EventType enums.BookingEventType `gorm:"column:event_type;type:text;not null"`
	Metadata  datatypes.JSON         `gorm:"column:metadata;type:jsonb"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}
