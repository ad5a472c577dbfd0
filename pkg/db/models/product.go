package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Product represents a catalog listing with its stock counters.
// Quantity is the available-for-sale count; Reserved counts units held in
// open carts. The sum of the two is the true physical stock and stays
// constant across cart add/update/remove.
type Product struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string         `gorm:"column:name;type:text;not null;uniqueIndex"`
	Description *string        `gorm:"column:description"`
	Company     string         `gorm:"column:company_name;not null"`
	Tags        pq.StringArray `gorm:"column:tags;type:text[]"`
	PriceCents  int            `gorm:"column:price_cents;not null"`
	Quantity    int            `gorm:"column:quantity;not null;default:0"`
	Reserved    int            `gorm:"column:reserved;not null;default:0"`
	ImagePath   *string        `gorm:"column:image_path"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
