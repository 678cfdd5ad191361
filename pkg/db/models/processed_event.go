package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/stashspot/stashspot-backend/pkg/enums"
)

// ProcessedEvent is one row per external event id the ledger has accepted.
// The unique index on EventID is what turns at-least-once webhook delivery
// into exactly-once processing.
type ProcessedEvent struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID   string            `gorm:"column:event_id;not null;uniqueIndex"`
	Source    enums.EventSource `gorm:"column:source;type:text;not null"`
	EventType string            `gorm:"column:event_type;not null"`
	Payload   datatypes.JSON    `gorm:"column:payload;type:jsonb"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime;index"`
}
