package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lromeroa/grocerly-backend/pkg/enums"
)

// OrderItem is a single cart line while status is in_cart and an immutable
// order line once placed. At most one in_cart row may exist per
// (customer, product).
type OrderItem struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;index"`
	ProductID  uuid.UUID         `gorm:"column:product_id;type:uuid;not null;index"`
	Quantity   int               `gorm:"column:quantity;not null"`
	Status     enums.OrderStatus `gorm:"column:status;not null;default:'in_cart'"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
