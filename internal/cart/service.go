package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lromeroa/grocerly-backend/pkg/db/models"
	pkgerrors "github.com/lromeroa/grocerly-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CartRepository abstracts the persistence surface the service needs.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindProductByName(ctx context.Context, name string) (*models.Product, error)
	FindOpenLine(ctx context.Context, customerID, productID uuid.UUID) (*models.OrderItem, error)
	ListOpenLines(ctx context.Context, customerID uuid.UUID) ([]models.OrderItem, error)
	CreateLine(ctx context.Context, line *models.OrderItem) (*models.OrderItem, error)
	UpdateLineQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error
	DeleteLine(ctx context.Context, lineID uuid.UUID) error
	AdjustProductStock(ctx context.Context, productID uuid.UUID, quantityDelta int) error
}

// LineView is the payload returned after a cart mutation.
type LineView struct {
	ProductName    string `json:"product_name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int    `json:"unit_price_cents"`
	LineTotalCents int    `json:"line_total_cents"`
}

// Service exposes cart mutations with two-phase stock reservation. Adding a
// line moves units from quantity to reserved; removal moves them back.
type Service interface {
	AddItem(ctx context.Context, customerID uuid.UUID, productName string, qty int) (*LineView, error)
	UpdateItem(ctx context.Context, customerID uuid.UUID, productName string, newQty int) (*LineView, error)
	RemoveItem(ctx context.Context, customerID uuid.UUID, productName string) error
}

type service struct {
	repo CartRepository
	tx   txRunner
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// AddItem creates an in_cart line and reserves stock for it.
func (s *service) AddItem(ctx context.Context, customerID uuid.UUID, productName string, qty int) (*LineView, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if productName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var view *LineView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		product, err := repo.FindProductByName(ctx, productName)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}

		if _, err := repo.FindOpenLine(ctx, customerID, product.ID); err == nil {
			return pkgerrors.New(pkgerrors.CodeDuplicateCartItem, "product already in cart, update the existing line instead")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
		}

		if product.Quantity < qty {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock available").
				WithDetails(map[string]any{"available": product.Quantity, "requested": qty})
		}

		line := &models.OrderItem{
			ID:         uuid.New(),
			CustomerID: customerID,
			ProductID:  product.ID,
			Quantity:   qty,
		}
		if _, err := repo.CreateLine(ctx, line); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart line")
		}

		if err := repo.AdjustProductStock(ctx, product.ID, -qty); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
		}

		view = &LineView{
			ProductName:    product.Name,
			Quantity:       qty,
			UnitPriceCents: product.PriceCents,
			LineTotalCents: product.PriceCents * qty,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// UpdateItem changes the quantity of an existing line and shifts the stock
// counters by the difference.
func (s *service) UpdateItem(ctx context.Context, customerID uuid.UUID, productName string, newQty int) (*LineView, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if productName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if newQty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive, remove the line to drop it")
	}

	var view *LineView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		product, err := repo.FindProductByName(ctx, productName)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}

		line, err := repo.FindOpenLine(ctx, customerID, product.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "no open cart line for product")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
		}

		diff := newQty - line.Quantity
		if diff > 0 && product.Quantity < diff {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock available").
				WithDetails(map[string]any{"available": product.Quantity, "requested_extra": diff})
		}

		if diff != 0 {
			if err := repo.UpdateLineQuantity(ctx, line.ID, newQty); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
			}
			if err := repo.AdjustProductStock(ctx, product.ID, -diff); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "shift reservation")
			}
		}

		view = &LineView{
			ProductName:    product.Name,
			Quantity:       newQty,
			UnitPriceCents: product.PriceCents,
			LineTotalCents: product.PriceCents * newQty,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// RemoveItem deletes the line and returns its reserved units to available
// stock.
func (s *service) RemoveItem(ctx context.Context, customerID uuid.UUID, productName string) error {
	if customerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if productName == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		product, err := repo.FindProductByName(ctx, productName)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}

		line, err := repo.FindOpenLine(ctx, customerID, product.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "no open cart line for product")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
		}

		if err := repo.DeleteLine(ctx, line.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart line")
		}
		if err := repo.AdjustProductStock(ctx, product.ID, line.Quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release reservation")
		}
		return nil
	})
}
