package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stashspot/stashspot-backend/pkg/enums"
)

// Customer owns bookings and items. Email doubles as the scheduling provider's
// owner lookup key. Profiled is false until the first scheduling event
// auto-provisions the minimal profile.
type Customer struct {
	ID                 uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email              string                   `gorm:"column:email;not null;uniqueIndex"`
	Name               string                   `gorm:"column:name"`
	Profiled           bool                     `gorm:"column:profiled;not null;default:false"`
	PaymentRef         *string                  `gorm:"column:payment_ref;uniqueIndex"`
	SubscriptionStatus enums.SubscriptionStatus `gorm:"column:subscription_status;type:text;not null;default:'none'"`
	CreatedAt          time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
