package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stashspot/stashspot-backend/pkg/enums"
)

// Item is one physical object in a customer's inventory. Status is only ever
// mutated as a side effect of booking transitions, never by direct client writes.
type Item struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID uuid.UUID        `gorm:"column:customer_id;type:uuid;not null;index"`
	Label      string           `gorm:"column:label;not null"`
	Category   *string          `gorm:"column:category"`
	Status     enums.ItemStatus `gorm:"column:status;type:text;not null;default:'home'"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
