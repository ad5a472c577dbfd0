package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lromeroa/grocerly-backend/pkg/db/models"
	"github.com/lromeroa/grocerly-backend/pkg/enums"
)

// Repository exposes persistence operations for cart lines and the product
// stock counters they redistribute.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindProductByName loads a product using its unique name.
func (r *Repository) FindProductByName(ctx context.Context, name string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindOpenLine returns the customer's in_cart line for the product, if any.
func (r *Repository) FindOpenLine(ctx context.Context, customerID, productID uuid.UUID) (*models.OrderItem, error) {
	var line models.OrderItem
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND product_id = ? AND status = ?", customerID, productID, enums.OrderStatusInCart).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// ListOpenLines returns every in_cart line for the customer, oldest first.
func (r *Repository) ListOpenLines(ctx context.Context, customerID uuid.UUID) ([]models.OrderItem, error) {
	var rows []models.OrderItem
	if err := r.db.WithContext(ctx).
		Where("customer_id = ? AND status = ?", customerID, enums.OrderStatusInCart).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateLine inserts a new in_cart line.
func (r *Repository) CreateLine(ctx context.Context, line *models.OrderItem) (*models.OrderItem, error) {
	if line.Status == "" {
		line.Status = enums.OrderStatusInCart
	}
	if err := r.db.WithContext(ctx).Create(line).Error; err != nil {
		return nil, err
	}
	return line, nil
}

// UpdateLineQuantity sets the quantity of an existing line.
func (r *Repository) UpdateLineQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("id = ?", lineID).
		Update("quantity", quantity).Error
}

// DeleteLine removes a cart line.
func (r *Repository) DeleteLine(ctx context.Context, lineID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", lineID).
		Delete(&models.OrderItem{}).Error
}

// AdjustProductStock applies a delta to the product's quantity and the
// inverse delta to reserved, keeping quantity+reserved constant.
func (r *Repository) AdjustProductStock(ctx context.Context, productID uuid.UUID, quantityDelta int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"quantity": gorm.Expr("quantity + ?", quantityDelta),
			"reserved": gorm.Expr("reserved - ?", quantityDelta),
		}).Error
}
