package models

import (
	"time"

	"github.com/google/uuid"
)

// StaffMember is one row in the staff registry consulted by the staff API.
type StaffMember struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string    `gorm:"column:email;not null;uniqueIndex"`
	// The column default lives in the migration only. A gorm-side default
	// makes gorm drop Active=false on insert, which would keep
	// deactivated staff active.
	Active    bool      `gorm:"column:active;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
