package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer represents the canonical shopper identity.
type Customer struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string    `gorm:"column:name;not null"`
	Email         string    `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash  *string   `gorm:"column:password_hash"`
	Address       *string   `gorm:"column:address"`
	ContactNumber *string   `gorm:"column:contact_number"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
