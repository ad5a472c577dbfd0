package models

import (
	"time"

	"github.com/google/uuid"
)

// Transaction is the immutable sales record written once per order line at
// checkout. It is never mutated after insertion.
type Transaction struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID  uuid.UUID `gorm:"column:customer_id;type:uuid;not null;index"`
	ProductID   uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	OrderItemID uuid.UUID `gorm:"column:order_item_id;type:uuid;not null"`
	AmountCents int64     `gorm:"column:total_amount_cents;not null"`
	ItemCount   int       `gorm:"column:item_count;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
