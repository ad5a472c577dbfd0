package auth

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgauth "github.com/lromeroa/grocerly-backend/pkg/auth"
	"github.com/lromeroa/grocerly-backend/pkg/config"
	"github.com/lromeroa/grocerly-backend/pkg/db"
	"github.com/lromeroa/grocerly-backend/pkg/db/models"
	"github.com/lromeroa/grocerly-backend/pkg/enums"
	pkgerrors "github.com/lromeroa/grocerly-backend/pkg/errors"
	"github.com/lromeroa/grocerly-backend/pkg/security"
)

var otpRe = regexp.MustCompile(`\d{6}`)

type captureSender struct {
	to      string
	subject string
	body    string
	sends   int
}

func (c *captureSender) Send(_ context.Context, to, subject, body string) error {
	c.to = to
	c.subject = subject
	c.body = body
	c.sends++
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "grocerly-test",
		ExpirationMinutes: 15,
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:auth_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Customer{},
		&models.Admin{},
		&models.LoginState{},
		&models.PendingRegistration{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB, sender *captureSender) Service {
	t.Helper()
	svc, err := NewService(
		NewRepository(conn),
		db.NewWithConn(conn),
		sender,
		testJWTConfig(),
		config.PasswordConfig{},
		config.OTPConfig{TTL: 15 * time.Minute},
	)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func validSignup() StartRegistrationInput {
	return StartRegistrationInput{
		Name:     "Ana",
		Email:    "ana@example.com",
		Password: "Secret9!pass",
		Address:  "12 Market Street, Springfield",
	}
}

func TestStartRegistrationAggregatesProblems(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn, &captureSender{})

	err := svc.StartRegistration(context.Background(), StartRegistrationInput{
		Name:     "",
		Email:    "not-an-email",
		Password: "short",
		Address:  "x",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().([]string)
	if !ok {
		t.Fatalf("expected string details, got %T", typed.Details())
	}
	// name, email, address, plus four password policy failures
	if len(details) < 5 {
		t.Fatalf("expected aggregated problems, got %v", details)
	}
}

func TestRegistrationAndLoginLifecycle(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	sender := &captureSender{}
	svc := newTestService(t, conn, sender)
	ctx := context.Background()

	if err := svc.StartRegistration(ctx, validSignup()); err != nil {
		t.Fatalf("start registration: %v", err)
	}
	if sender.to != "ana@example.com" || sender.sends != 1 {
		t.Fatalf("unexpected mail delivery: %+v", sender)
	}
	otp := otpRe.FindString(sender.body)
	if otp == "" {
		t.Fatalf("no otp found in mail body: %q", sender.body)
	}

	registered, err := svc.VerifyRegistration(ctx, VerifyRegistrationInput{Email: "ana@example.com", OTP: otp})
	if err != nil {
		t.Fatalf("verify registration: %v", err)
	}
	if registered.Email != "ana@example.com" {
		t.Fatalf("unexpected registered customer: %+v", registered)
	}

	var pendingCount int64
	if err := conn.Model(&models.PendingRegistration{}).Count(&pendingCount).Error; err != nil {
		t.Fatalf("count pending: %v", err)
	}
	if pendingCount != 0 {
		t.Fatalf("pending registration not cleared")
	}

	session, err := svc.Login(ctx, "ana@example.com", "Secret9!pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), session.Token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.ActorID != registered.ID || claims.ActorType != enums.ActorTypeCustomer {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	// second login while the session is open must be rejected
	_, err = svc.Login(ctx, "ana@example.com", "Secret9!pass")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	if err := svc.ForceLogout(ctx, "ana@example.com"); err != nil {
		t.Fatalf("force logout: %v", err)
	}
	if _, err := svc.Login(ctx, "ana@example.com", "Secret9!pass"); err != nil {
		t.Fatalf("login after force logout: %v", err)
	}

	if err := svc.Logout(ctx, registered.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := svc.Logout(ctx, registered.ID); err == nil {
		t.Fatal("expected error on double logout")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestVerifyRegistrationWrongOTP(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	sender := &captureSender{}
	svc := newTestService(t, conn, sender)
	ctx := context.Background()

	if err := svc.StartRegistration(ctx, validSignup()); err != nil {
		t.Fatalf("start registration: %v", err)
	}

	_, err := svc.VerifyRegistration(ctx, VerifyRegistrationInput{Email: "ana@example.com", OTP: "000000"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestVerifyRegistrationExpiredOTP(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	sender := &captureSender{}
	svc := newTestService(t, conn, sender)
	ctx := context.Background()

	if err := svc.StartRegistration(ctx, validSignup()); err != nil {
		t.Fatalf("start registration: %v", err)
	}
	otp := otpRe.FindString(sender.body)

	stale := time.Now().UTC().Add(-time.Hour)
	if err := conn.Model(&models.PendingRegistration{}).
		Where("email = ?", "ana@example.com").
		Update("created_at", stale).Error; err != nil {
		t.Fatalf("age pending row: %v", err)
	}

	_, err := svc.VerifyRegistration(ctx, VerifyRegistrationInput{Email: "ana@example.com", OTP: otp})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected expired code error, got %v", err)
	}
}

func TestLoginDeactivatedAccount(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	sender := &captureSender{}
	svc := newTestService(t, conn, sender)
	ctx := context.Background()

	if err := svc.StartRegistration(ctx, validSignup()); err != nil {
		t.Fatalf("start registration: %v", err)
	}
	otp := otpRe.FindString(sender.body)
	registered, err := svc.VerifyRegistration(ctx, VerifyRegistrationInput{Email: "ana@example.com", OTP: otp})
	if err != nil {
		t.Fatalf("verify registration: %v", err)
	}

	if err := conn.Model(&models.LoginState{}).
		Where("actor_id = ?", registered.ID).
		Update("status", enums.AccountStatusInactive).Error; err != nil {
		t.Fatalf("deactivate account: %v", err)
	}

	_, err = svc.Login(ctx, "ana@example.com", "Secret9!pass")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn, &captureSender{})

	_, err := svc.Login(context.Background(), "ghost@example.com", "whatever")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestAdminLoginHasNoOpenSessionGuard(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn, &captureSender{})
	ctx := context.Background()

	hash, err := security.HashPassword("Admin9!pass", config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	admin := &models.Admin{ID: uuid.New(), Email: "ops@grocerly.dev", PasswordHash: hash}
	if err := conn.Create(admin).Error; err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	first, err := svc.AdminLogin(ctx, "ops@grocerly.dev", "Admin9!pass")
	if err != nil {
		t.Fatalf("first admin login: %v", err)
	}
	if first.ActorType != enums.ActorTypeAdmin {
		t.Fatalf("unexpected actor type: %s", first.ActorType)
	}

	// overlapping sessions are allowed for admins
	if _, err := svc.AdminLogin(ctx, "ops@grocerly.dev", "Admin9!pass"); err != nil {
		t.Fatalf("second admin login: %v", err)
	}

	if err := svc.AdminLogout(ctx, admin.ID); err != nil {
		t.Fatalf("admin logout: %v", err)
	}
}
