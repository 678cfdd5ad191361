package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stashspot/stashspot-backend/pkg/enums"
)

// Notification records a completion notification triggered for a customer.
type Notification struct {
	ID         uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID uuid.UUID              `gorm:"column:customer_id;type:uuid;not null;index"`
	BookingID  uuid.UUID              `gorm:"column:booking_id;type:uuid;not null"`
	Kind       enums.NotificationKind `gorm:"column:kind;type:text;not null"`
	SentAt     *time.Time             `gorm:"column:sent_at"`
	CreatedAt  time.Time              `gorm:"column:created_at;autoCreateTime;index"`
}
