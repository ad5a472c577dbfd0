package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lromeroa/grocerly-backend/pkg/db/models"
	"github.com/lromeroa/grocerly-backend/pkg/enums"
)

// Repository exposes persistence operations for order placement, history and
// sales reporting.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListOpenLines(ctx context.Context, customerID uuid.UUID) ([]OpenLineRow, error)
	MarkLinePlaced(ctx context.Context, lineID uuid.UUID) error
	FinalizeReservation(ctx context.Context, productID uuid.UUID, qty int) error
	CreateTransaction(ctx context.Context, txn *models.Transaction) (*models.Transaction, error)
	ListHistoryRows(ctx context.Context, customerID uuid.UUID) ([]HistoryRow, error)
	ListTransactionRows(ctx context.Context) ([]TransactionRow, error)
	SalesTotals(ctx context.Context) (*SalesTotalsRow, error)
	ListPlacedOrderRows(ctx context.Context) ([]PlacedOrderRow, error)
}

// OpenLineRow is an in_cart line joined with its product.
type OpenLineRow struct {
	LineID             uuid.UUID `gorm:"column:line_id"`
	ProductID          uuid.UUID `gorm:"column:product_id"`
	ProductName        string    `gorm:"column:product_name"`
	ProductCompany     string    `gorm:"column:product_company"`
	ProductDescription *string   `gorm:"column:product_description"`
	UnitPriceCents     int       `gorm:"column:unit_price_cents"`
	Quantity           int       `gorm:"column:quantity"`
}

// HistoryRow is a transaction joined with its placed line and product.
type HistoryRow struct {
	TransactionID  uuid.UUID         `gorm:"column:transaction_id"`
	AmountCents    int64             `gorm:"column:amount_cents"`
	ItemCount      int               `gorm:"column:item_count"`
	ProductName    string            `gorm:"column:product_name"`
	Quantity       int               `gorm:"column:quantity"`
	UnitPriceCents int               `gorm:"column:unit_price_cents"`
	Status         enums.OrderStatus `gorm:"column:status"`
	CreatedAt      time.Time         `gorm:"column:created_at"`
}

// TransactionRow is a transaction joined with its customer, for back office
// listings.
type TransactionRow struct {
	TransactionID uuid.UUID `gorm:"column:transaction_id"`
	CustomerName  string    `gorm:"column:customer_name"`
	CustomerEmail string    `gorm:"column:customer_email"`
	ProductName   string    `gorm:"column:product_name"`
	AmountCents   int64     `gorm:"column:amount_cents"`
	ItemCount     int       `gorm:"column:item_count"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

// SalesTotalsRow aggregates the transactions table.
type SalesTotalsRow struct {
	TransactionCount int64 `gorm:"column:transaction_count"`
	GrandTotalCents  int64 `gorm:"column:grand_total_cents"`
	TotalItems       int64 `gorm:"column:total_items"`
}

// PlacedOrderRow is a placed order line joined with customer and product.
type PlacedOrderRow struct {
	LineID        uuid.UUID `gorm:"column:line_id"`
	CustomerName  string    `gorm:"column:customer_name"`
	CustomerEmail string    `gorm:"column:customer_email"`
	ProductName   string    `gorm:"column:product_name"`
	Quantity      int       `gorm:"column:quantity"`
	PlacedAt      time.Time `gorm:"column:placed_at"`
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListOpenLines(ctx context.Context, customerID uuid.UUID) ([]OpenLineRow, error) {
	var rows []OpenLineRow
	err := r.db.WithContext(ctx).
		Table("order_items").
		Select(`order_items.id AS line_id,
			products.id AS product_id,
			products.name AS product_name,
			products.company_name AS product_company,
			products.description AS product_description,
			products.price_cents AS unit_price_cents,
			order_items.quantity AS quantity`).
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("order_items.customer_id = ? AND order_items.status = ?", customerID, enums.OrderStatusInCart).
		Order("order_items.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) MarkLinePlaced(ctx context.Context, lineID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("id = ?", lineID).
		Update("status", enums.OrderStatusPlaced).Error
}

// FinalizeReservation releases reserved units at placement time. Available
// quantity stays untouched because it was already decremented on cart add.
func (r *repository) FinalizeReservation(ctx context.Context, productID uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Update("reserved", gorm.Expr("reserved - ?", qty)).Error
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.Transaction) (*models.Transaction, error) {
	if err := r.db.WithContext(ctx).Create(txn).Error; err != nil {
		return nil, err
	}
	return txn, nil
}

func (r *repository) ListHistoryRows(ctx context.Context, customerID uuid.UUID) ([]HistoryRow, error) {
	var rows []HistoryRow
	err := r.db.WithContext(ctx).
		Table("transactions").
		Select(`transactions.id AS transaction_id,
			transactions.total_amount_cents AS amount_cents,
			transactions.item_count AS item_count,
			products.name AS product_name,
			order_items.quantity AS quantity,
			products.price_cents AS unit_price_cents,
			order_items.status AS status,
			transactions.created_at AS created_at`).
		Joins("JOIN order_items ON order_items.id = transactions.order_item_id").
		Joins("JOIN products ON products.id = transactions.product_id").
		Where("transactions.customer_id = ?", customerID).
		Order("transactions.created_at DESC, transactions.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListTransactionRows(ctx context.Context) ([]TransactionRow, error) {
	var rows []TransactionRow
	err := r.db.WithContext(ctx).
		Table("transactions").
		Select(`transactions.id AS transaction_id,
			customers.name AS customer_name,
			customers.email AS customer_email,
			products.name AS product_name,
			transactions.total_amount_cents AS amount_cents,
			transactions.item_count AS item_count,
			transactions.created_at AS created_at`).
		Joins("JOIN customers ON customers.id = transactions.customer_id").
		Joins("JOIN products ON products.id = transactions.product_id").
		Order("transactions.total_amount_cents DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) SalesTotals(ctx context.Context) (*SalesTotalsRow, error) {
	var row SalesTotalsRow
	err := r.db.WithContext(ctx).
		Table("transactions").
		Select(`COUNT(*) AS transaction_count,
			COALESCE(SUM(total_amount_cents), 0) AS grand_total_cents,
			COALESCE(SUM(item_count), 0) AS total_items`).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) ListPlacedOrderRows(ctx context.Context) ([]PlacedOrderRow, error) {
	var rows []PlacedOrderRow
	err := r.db.WithContext(ctx).
		Table("order_items").
		Select(`order_items.id AS line_id,
			customers.name AS customer_name,
			customers.email AS customer_email,
			products.name AS product_name,
			order_items.quantity AS quantity,
			order_items.updated_at AS placed_at`).
		Joins("JOIN customers ON customers.id = order_items.customer_id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("order_items.status = ?", enums.OrderStatusPlaced).
		Order("order_items.updated_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
