package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lromeroa/grocerly-backend/pkg/db"
	"github.com/lromeroa/grocerly-backend/pkg/db/models"
	"github.com/lromeroa/grocerly-backend/pkg/enums"
	pkgerrors "github.com/lromeroa/grocerly-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Customer{},
		&models.Product{},
		&models.OrderItem{},
		&models.Transaction{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(conn), db.NewWithConn(conn))
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func seedCustomer(t *testing.T, conn *gorm.DB, name, email string) *models.Customer {
	t.Helper()
	customer := &models.Customer{ID: uuid.New(), Name: name, Email: email}
	if err := conn.Create(customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return customer
}

func seedProduct(t *testing.T, conn *gorm.DB, name string, priceCents, quantity, reserved int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:         uuid.New(),
		Name:       name,
		Company:    "Fresh Farms",
		PriceCents: priceCents,
		Quantity:   quantity,
		Reserved:   reserved,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func seedOpenLine(t *testing.T, conn *gorm.DB, customerID, productID uuid.UUID, qty int) *models.OrderItem {
	t.Helper()
	line := &models.OrderItem{
		ID:         uuid.New(),
		CustomerID: customerID,
		ProductID:  productID,
		Quantity:   qty,
		Status:     enums.OrderStatusInCart,
	}
	if err := conn.Create(line).Error; err != nil {
		t.Fatalf("seed cart line: %v", err)
	}
	return line
}

func TestPlaceEmptyCart(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	customer := seedCustomer(t, conn, "Ana", "ana@example.com")

	_, err := svc.Place(context.Background(), customer.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeEmptyCart {
		t.Fatalf("expected empty cart error, got %v", err)
	}

	var count int64
	if err := conn.Model(&models.Transaction{}).Count(&count).Error; err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no transactions, got %d", count)
	}
}

func TestPlaceProducesInvoiceAndTransactions(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	customer := seedCustomer(t, conn, "Ana", "ana@example.com")
	apples := seedProduct(t, conn, "apples", 300, 8, 2)
	honey := seedProduct(t, conn, "honey", 500, 4, 1)
	seedOpenLine(t, conn, customer.ID, apples.ID, 2)
	seedOpenLine(t, conn, customer.ID, honey.ID, 1)

	invoice, err := svc.Place(ctx, customer.ID)
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	if invoice.GrandTotalCents != 1100 {
		t.Fatalf("expected grand total 1100, got %d", invoice.GrandTotalCents)
	}
	if invoice.GrandTotal != "11.00" {
		t.Fatalf("expected grand total 11.00, got %q", invoice.GrandTotal)
	}
	if invoice.TotalItems != 3 {
		t.Fatalf("expected 3 items, got %d", invoice.TotalItems)
	}
	if len(invoice.Lines) != 2 {
		t.Fatalf("expected 2 invoice lines, got %d", len(invoice.Lines))
	}
	totals := map[string]int64{}
	for _, line := range invoice.Lines {
		totals[line.ProductName] = line.LineTotalCents
	}
	if totals["apples"] != 600 || totals["honey"] != 500 {
		t.Fatalf("unexpected line totals: %+v", totals)
	}

	var txns int64
	if err := conn.Model(&models.Transaction{}).Where("customer_id = ?", customer.ID).Count(&txns).Error; err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	if txns != 2 {
		t.Fatalf("expected 2 transactions, got %d", txns)
	}

	var placed int64
	if err := conn.Model(&models.OrderItem{}).
		Where("customer_id = ? AND status = ?", customer.ID, enums.OrderStatusPlaced).
		Count(&placed).Error; err != nil {
		t.Fatalf("count placed lines: %v", err)
	}
	if placed != 2 {
		t.Fatalf("expected 2 placed lines, got %d", placed)
	}

	var gotApples, gotHoney models.Product
	if err := conn.First(&gotApples, "id = ?", apples.ID).Error; err != nil {
		t.Fatalf("load apples: %v", err)
	}
	if err := conn.First(&gotHoney, "id = ?", honey.ID).Error; err != nil {
		t.Fatalf("load honey: %v", err)
	}
	if gotApples.Reserved != 0 || gotApples.Quantity != 8 {
		t.Fatalf("unexpected apples stock: quantity=%d reserved=%d", gotApples.Quantity, gotApples.Reserved)
	}
	if gotHoney.Reserved != 0 || gotHoney.Quantity != 4 {
		t.Fatalf("unexpected honey stock: quantity=%d reserved=%d", gotHoney.Quantity, gotHoney.Reserved)
	}
}

func TestHistoryGroupsByTransaction(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	customer := seedCustomer(t, conn, "Ana", "ana@example.com")
	apples := seedProduct(t, conn, "apples", 300, 8, 2)
	honey := seedProduct(t, conn, "honey", 500, 4, 1)
	seedOpenLine(t, conn, customer.ID, apples.ID, 2)
	seedOpenLine(t, conn, customer.ID, honey.ID, 1)

	if _, err := svc.Place(ctx, customer.ID); err != nil {
		t.Fatalf("place order: %v", err)
	}

	history, err := svc.History(ctx, customer.ID)
	if err != nil {
		t.Fatalf("load history: %v", err)
	}
	if len(history.Transactions) != 2 {
		t.Fatalf("expected 2 transaction summaries, got %d", len(history.Transactions))
	}
	for _, summary := range history.Transactions {
		if len(summary.Lines) != 1 {
			t.Fatalf("expected 1 line per transaction, got %d", len(summary.Lines))
		}
		line := summary.Lines[0]
		if line.Status != "placed" {
			t.Fatalf("expected placed status, got %q", line.Status)
		}
		if line.LineTotalCents != summary.AmountCents {
			t.Fatalf("line total %d does not match amount %d", line.LineTotalCents, summary.AmountCents)
		}
	}
}

func TestHistoryEmptyIsNotAnError(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	customer := seedCustomer(t, conn, "Ana", "ana@example.com")

	history, err := svc.History(context.Background(), customer.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(history.Transactions) != 0 {
		t.Fatalf("expected empty history, got %d", len(history.Transactions))
	}
}

func TestListTransactionsOrderedByAmount(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	ana := seedCustomer(t, conn, "Ana", "ana@example.com")
	ben := seedCustomer(t, conn, "Ben", "ben@example.com")
	apples := seedProduct(t, conn, "apples", 300, 10, 3)
	honey := seedProduct(t, conn, "honey", 500, 10, 1)
	seedOpenLine(t, conn, ana.ID, apples.ID, 3)
	seedOpenLine(t, conn, ben.ID, honey.ID, 1)

	if _, err := svc.Place(ctx, ana.ID); err != nil {
		t.Fatalf("place ana order: %v", err)
	}
	if _, err := svc.Place(ctx, ben.ID); err != nil {
		t.Fatalf("place ben order: %v", err)
	}

	rows, err := svc.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].AmountCents != 900 || rows[0].CustomerName != "Ana" {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if rows[1].AmountCents != 500 || rows[1].CustomerName != "Ben" {
		t.Fatalf("unexpected second row: %+v", rows[1])
	}
}

func TestSalesSummary(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	customer := seedCustomer(t, conn, "Ana", "ana@example.com")
	apples := seedProduct(t, conn, "apples", 300, 8, 2)
	honey := seedProduct(t, conn, "honey", 500, 4, 1)
	seedOpenLine(t, conn, customer.ID, apples.ID, 2)
	seedOpenLine(t, conn, customer.ID, honey.ID, 1)

	if _, err := svc.Place(ctx, customer.ID); err != nil {
		t.Fatalf("place order: %v", err)
	}

	summary, err := svc.SalesSummary(ctx)
	if err != nil {
		t.Fatalf("sales summary: %v", err)
	}
	if summary.TransactionCount != 2 {
		t.Fatalf("expected 2 transactions, got %d", summary.TransactionCount)
	}
	if summary.GrandTotal != "11.00" {
		t.Fatalf("expected grand total 11.00, got %q", summary.GrandTotal)
	}
	if summary.TotalItems != 3 {
		t.Fatalf("expected 3 items, got %d", summary.TotalItems)
	}
	if summary.AverageOrderValue != "5.50" {
		t.Fatalf("expected average 5.50, got %q", summary.AverageOrderValue)
	}
}

func TestSalesSummaryEmpty(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)

	summary, err := svc.SalesSummary(context.Background())
	if err != nil {
		t.Fatalf("sales summary: %v", err)
	}
	if summary.TransactionCount != 0 || summary.GrandTotal != "0.00" || summary.AverageOrderValue != "0.00" {
		t.Fatalf("unexpected empty summary: %+v", summary)
	}
}

func TestPlacedOrderReport(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	customer := seedCustomer(t, conn, "Ana", "ana@example.com")
	apples := seedProduct(t, conn, "apples", 300, 8, 2)
	seedOpenLine(t, conn, customer.ID, apples.ID, 2)

	if _, err := svc.Place(ctx, customer.ID); err != nil {
		t.Fatalf("place order: %v", err)
	}

	rows, err := svc.PlacedOrderReport(ctx)
	if err != nil {
		t.Fatalf("placed order report: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].CustomerEmail != "ana@example.com" || rows[0].ProductName != "apples" || rows[0].Quantity != 2 {
		t.Fatalf("unexpected row: %+v", rows[0])
	}
}
