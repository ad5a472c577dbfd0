package enums

import "fmt"

// OrderStatus tracks whether an order line is still in the cart or placed.
type OrderStatus string

const (
	OrderStatusInCart OrderStatus = "in_cart"
	OrderStatusPlaced OrderStatus = "placed"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusInCart,
	OrderStatusPlaced,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
