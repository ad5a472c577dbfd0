package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lromeroa/grocerly-backend/pkg/db/models"
	pkgerrors "github.com/lromeroa/grocerly-backend/pkg/errors"
	"github.com/lromeroa/grocerly-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// InvoiceLine is one priced line of a placed order.
type InvoiceLine struct {
	ProductName    string  `json:"product_name"`
	Company        string  `json:"company"`
	Description    *string `json:"description,omitempty"`
	UnitPriceCents int     `json:"unit_price_cents"`
	Quantity       int     `json:"quantity"`
	LineTotalCents int64   `json:"line_total_cents"`
}

// Invoice is the computed summary returned at placement. It is not persisted.
type Invoice struct {
	Lines           []InvoiceLine `json:"lines"`
	GrandTotalCents int64         `json:"grand_total_cents"`
	GrandTotal      string        `json:"grand_total"`
	TotalItems      int           `json:"total_items"`
	PlacedAt        time.Time     `json:"placed_at"`
}

// HistoryLine is one order line inside a past transaction.
type HistoryLine struct {
	ProductName    string `json:"product_name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int    `json:"unit_price_cents"`
	LineTotalCents int64  `json:"line_total_cents"`
	Status         string `json:"status"`
}

// TransactionSummary groups history lines under their transaction.
type TransactionSummary struct {
	TransactionID uuid.UUID     `json:"transaction_id"`
	AmountCents   int64         `json:"amount_cents"`
	Amount        string        `json:"amount"`
	ItemCount     int           `json:"item_count"`
	CreatedAt     time.Time     `json:"created_at"`
	Lines         []HistoryLine `json:"lines"`
}

// History is the customer's full order history. Empty means the customer has
// never placed an order, which is not an error.
type History struct {
	Transactions []TransactionSummary `json:"transactions"`
}

// AdminTransaction is a back office listing row.
type AdminTransaction struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	ProductName   string    `json:"product_name"`
	AmountCents   int64     `json:"amount_cents"`
	Amount        string    `json:"amount"`
	ItemCount     int       `json:"item_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// SalesSummary aggregates all recorded transactions.
type SalesSummary struct {
	TransactionCount  int64  `json:"transaction_count"`
	GrandTotalCents   int64  `json:"grand_total_cents"`
	GrandTotal        string `json:"grand_total"`
	TotalItems        int64  `json:"total_items"`
	AverageOrderValue string `json:"average_order_value"`
}

// PlacedOrder is one placed line with its customer, for reporting.
type PlacedOrder struct {
	LineID        uuid.UUID `json:"line_id"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	ProductName   string    `json:"product_name"`
	Quantity      int       `json:"quantity"`
	PlacedAt      time.Time `json:"placed_at"`
}

// Service exposes order placement, history and sales reporting.
type Service interface {
	Place(ctx context.Context, customerID uuid.UUID) (*Invoice, error)
	History(ctx context.Context, customerID uuid.UUID) (*History, error)
	ListTransactions(ctx context.Context) ([]AdminTransaction, error)
	SalesSummary(ctx context.Context) (*SalesSummary, error)
	PlacedOrderReport(ctx context.Context) ([]PlacedOrder, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds an orders service backed by the provided stack.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// Place turns every in_cart line into a placed order atomically. One
// immutable transaction row is written per line and the reservation taken at
// cart add time is released.
func (s *service) Place(ctx context.Context, customerID uuid.UUID) (*Invoice, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}

	var invoice *Invoice
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		lines, err := repo.ListOpenLines(ctx, customerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart lines")
		}
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty, nothing to place")
		}

		placedAt := time.Now().UTC()
		out := &Invoice{
			Lines:    make([]InvoiceLine, 0, len(lines)),
			PlacedAt: placedAt,
		}

		for _, line := range lines {
			lineTotal := int64(line.UnitPriceCents) * int64(line.Quantity)

			if err := repo.MarkLinePlaced(ctx, line.LineID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "place order line")
			}
			if err := repo.FinalizeReservation(ctx, line.ProductID, line.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "finalize reservation")
			}
			if _, err := repo.CreateTransaction(ctx, &models.Transaction{
				ID:          uuid.New(),
				CustomerID:  customerID,
				ProductID:   line.ProductID,
				OrderItemID: line.LineID,
				AmountCents: lineTotal,
				ItemCount:   line.Quantity,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record transaction")
			}

			out.Lines = append(out.Lines, InvoiceLine{
				ProductName:    line.ProductName,
				Company:        line.ProductCompany,
				Description:    line.ProductDescription,
				UnitPriceCents: line.UnitPriceCents,
				Quantity:       line.Quantity,
				LineTotalCents: lineTotal,
			})
			out.GrandTotalCents += lineTotal
			out.TotalItems += line.Quantity
		}

		out.GrandTotal = types.FormatCents(out.GrandTotalCents)
		invoice = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// History returns the customer's past transactions with their lines grouped
// by transaction id.
func (s *service) History(ctx context.Context, customerID uuid.UUID) (*History, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}

	rows, err := s.repo.ListHistoryRows(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order history")
	}

	out := &History{Transactions: []TransactionSummary{}}
	index := map[uuid.UUID]int{}
	for _, row := range rows {
		pos, ok := index[row.TransactionID]
		if !ok {
			out.Transactions = append(out.Transactions, TransactionSummary{
				TransactionID: row.TransactionID,
				AmountCents:   row.AmountCents,
				Amount:        types.FormatCents(row.AmountCents),
				ItemCount:     row.ItemCount,
				CreatedAt:     row.CreatedAt,
			})
			pos = len(out.Transactions) - 1
			index[row.TransactionID] = pos
		}
		out.Transactions[pos].Lines = append(out.Transactions[pos].Lines, HistoryLine{
			ProductName:    row.ProductName,
			Quantity:       row.Quantity,
			UnitPriceCents: row.UnitPriceCents,
			LineTotalCents: int64(row.UnitPriceCents) * int64(row.Quantity),
			Status:         row.Status.String(),
		})
	}
	return out, nil
}

// ListTransactions returns every recorded transaction joined with its
// customer, largest amounts first.
func (s *service) ListTransactions(ctx context.Context) ([]AdminTransaction, error) {
	rows, err := s.repo.ListTransactionRows(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transactions")
	}

	out := make([]AdminTransaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, AdminTransaction{
			TransactionID: row.TransactionID,
			CustomerName:  row.CustomerName,
			CustomerEmail: row.CustomerEmail,
			ProductName:   row.ProductName,
			AmountCents:   row.AmountCents,
			Amount:        types.FormatCents(row.AmountCents),
			ItemCount:     row.ItemCount,
			CreatedAt:     row.CreatedAt,
		})
	}
	return out, nil
}

// SalesSummary aggregates sales totals and the average transaction value.
func (s *service) SalesSummary(ctx context.Context) (*SalesSummary, error) {
	totals, err := s.repo.SalesTotals(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate sales")
	}

	return &SalesSummary{
		TransactionCount:  totals.TransactionCount,
		GrandTotalCents:   totals.GrandTotalCents,
		GrandTotal:        types.FormatCents(totals.GrandTotalCents),
		TotalItems:        totals.TotalItems,
		AverageOrderValue: types.AverageCents(totals.GrandTotalCents, totals.TransactionCount).StringFixed(2),
	}, nil
}

// PlacedOrderReport lists every placed order line with its customer.
func (s *service) PlacedOrderReport(ctx context.Context) ([]PlacedOrder, error) {
	rows, err := s.repo.ListPlacedOrderRows(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load placed orders")
	}

	out := make([]PlacedOrder, 0, len(rows))
	for _, row := range rows {
		out = append(out, PlacedOrder{
			LineID:        row.LineID,
			CustomerName:  row.CustomerName,
			CustomerEmail: row.CustomerEmail,
			ProductName:   row.ProductName,
			Quantity:      row.Quantity,
			PlacedAt:      row.PlacedAt,
		})
	}
	return out, nil
}
