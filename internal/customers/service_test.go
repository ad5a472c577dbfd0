package customers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lromeroa/grocerly-backend/pkg/config"
	"github.com/lromeroa/grocerly-backend/pkg/db"
	"github.com/lromeroa/grocerly-backend/pkg/db/models"
	"github.com/lromeroa/grocerly-backend/pkg/enums"
	pkgerrors "github.com/lromeroa/grocerly-backend/pkg/errors"
	"github.com/lromeroa/grocerly-backend/pkg/security"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:customers_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Customer{}, &models.LoginState{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(conn), db.NewWithConn(conn), config.PasswordConfig{})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func seedCustomer(t *testing.T, conn *gorm.DB, name, email string) *models.Customer {
	t.Helper()
	hash, err := security.HashPassword("Secret9!pass", config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	customer := &models.Customer{ID: uuid.New(), Name: name, Email: email, PasswordHash: &hash}
	if err := conn.Create(customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	state := &models.LoginState{
		ActorID:   customer.ID,
		ActorType: enums.ActorTypeCustomer,
		Status:    enums.AccountStatusActive,
	}
	if err := conn.Create(state).Error; err != nil {
		t.Fatalf("seed login state: %v", err)
	}
	return customer
}

func TestGetReturnsAccountWithStatus(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	customer := seedCustomer(t, conn, "Ana", "ana@example.com")

	dto, err := svc.Get(context.Background(), customer.ID)
	if err != nil {
		t.Fatalf("get customer: %v", err)
	}
	if dto.Email != "ana@example.com" || dto.Status != "active" {
		t.Fatalf("unexpected dto: %+v", dto)
	}
}

func TestGetUnknownCustomer(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)

	_, err := svc.Get(context.Background(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestUpdateDetailsPartial(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	customer := seedCustomer(t, conn, "Ana", "ana@example.com")

	address := "12 Market Street, Springfield"
	dto, err := svc.UpdateDetails(ctx, customer.ID, UpdateDetailsInput{Address: &address})
	if err != nil {
		t.Fatalf("update details: %v", err)
	}
	if dto.Address == nil || *dto.Address != address {
		t.Fatalf("unexpected address: %+v", dto.Address)
	}
	if dto.Name != "Ana" {
		t.Fatalf("name mutated: %q", dto.Name)
	}
}

func TestUpdateDetailsDuplicateEmail(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	seedCustomer(t, conn, "Ana", "ana@example.com")
	ben := seedCustomer(t, conn, "Ben", "ben@example.com")

	email := "ana@example.com"
	_, err := svc.UpdateDetails(ctx, ben.ID, UpdateDetailsInput{Email: &email})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestUpdateDetailsPasswordRecordsAudit(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	customer := seedCustomer(t, conn, "Ana", "ana@example.com")
	oldHash := *customer.PasswordHash

	password := "NewSecret9!pass"
	if _, err := svc.UpdateDetails(ctx, customer.ID, UpdateDetailsInput{Password: &password}); err != nil {
		t.Fatalf("update password: %v", err)
	}

	var got models.Customer
	if err := conn.First(&got, "id = ?", customer.ID).Error; err != nil {
		t.Fatalf("reload customer: %v", err)
	}
	ok, err := security.VerifyPassword(password, *got.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("new password does not verify: ok=%v err=%v", ok, err)
	}

	var state models.LoginState
	if err := conn.First(&state, "actor_id = ?", customer.ID).Error; err != nil {
		t.Fatalf("reload login state: %v", err)
	}
	if state.OldPasswordHash == nil || *state.OldPasswordHash != oldHash {
		t.Fatalf("old password hash not recorded")
	}
	if state.UpdatedPasswordHash == nil || *state.UpdatedPasswordHash != *got.PasswordHash {
		t.Fatalf("updated password hash not recorded")
	}
}

func TestSoftDeleteAndRestore(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	customer := seedCustomer(t, conn, "Ana", "ana@example.com")

	if err := svc.SoftDelete(ctx, customer.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	dto, err := svc.Get(ctx, customer.ID)
	if err != nil {
		t.Fatalf("get customer: %v", err)
	}
	if dto.Status != "inactive" {
		t.Fatalf("expected inactive status, got %q", dto.Status)
	}

	if err := svc.SoftDelete(ctx, customer.ID); err == nil {
		t.Fatal("expected error on double delete")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	if err := svc.Restore(ctx, customer.ID); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if err := svc.Restore(ctx, customer.ID); err == nil {
		t.Fatal("expected error on double restore")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestListFiltersByQuery(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	seedCustomer(t, conn, "Ana", "ana@example.com")
	seedCustomer(t, conn, "Ben", "ben@example.com")

	all, err := svc.List(context.Background(), "")
	if err != nil {
		t.Fatalf("list customers: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 customers, got %d", len(all))
	}

	filtered, err := svc.List(context.Background(), "ben")
	if err != nil {
		t.Fatalf("list customers with query: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Name != "Ben" {
		t.Fatalf("unexpected filtered result: %+v", filtered)
	}
}

func TestRestoreByCredentials(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	customer := seedCustomer(t, conn, "Ana", "ana@example.com")

	if err := svc.SoftDelete(context.Background(), customer.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	err := svc.RestoreByCredentials(context.Background(), "ana@example.com", "wrong-password")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	if err := svc.RestoreByCredentials(context.Background(), "Ana@Example.com", "Secret9!pass"); err != nil {
		t.Fatalf("restore by credentials: %v", err)
	}

	dto, err := svc.Get(context.Background(), customer.ID)
	if err != nil {
		t.Fatalf("get customer: %v", err)
	}
	if dto.Status != "active" {
		t.Fatalf("expected active status, got %s", dto.Status)
	}
}
