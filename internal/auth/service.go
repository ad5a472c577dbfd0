package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/lromeroa/grocerly-backend/pkg/auth"
	"github.com/lromeroa/grocerly-backend/pkg/config"
	"github.com/lromeroa/grocerly-backend/pkg/db/models"
	"github.com/lromeroa/grocerly-backend/pkg/enums"
	pkgerrors "github.com/lromeroa/grocerly-backend/pkg/errors"
	"github.com/lromeroa/grocerly-backend/pkg/mailer"
	"github.com/lromeroa/grocerly-backend/pkg/security"
)

const otpLength = 6

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AuthRepository abstracts the persistence surface the service needs.
type AuthRepository interface {
	WithTx(tx *gorm.DB) AuthRepository
	UpsertPendingRegistration(ctx context.Context, pending *models.PendingRegistration) error
	FindPendingRegistration(ctx context.Context, email string) (*models.PendingRegistration, error)
	DeletePendingRegistration(ctx context.Context, email string) error
	CreateCustomer(ctx context.Context, customer *models.Customer) (*models.Customer, error)
	FindCustomerByEmail(ctx context.Context, email string) (*models.Customer, error)
	FindAdminByEmail(ctx context.Context, email string) (*models.Admin, error)
	CreateLoginState(ctx context.Context, state *models.LoginState) error
	FindLoginState(ctx context.Context, actorID uuid.UUID, actorType enums.ActorType) (*models.LoginState, error)
	UpdateLoginStateFields(ctx context.Context, actorID uuid.UUID, actorType enums.ActorType, fields map[string]any) error
}

// StartRegistrationInput is the signup payload before OTP verification.
type StartRegistrationInput struct {
	Name          string
	Email         string
	Password      string
	Address       string
	ContactNumber string
}

// VerifyRegistrationInput confirms a signup with the mailed OTP.
type VerifyRegistrationInput struct {
	Email string
	OTP   string
}

// Session is the result of a successful login.
type Session struct {
	Token     string          `json:"token"`
	ActorID   uuid.UUID       `json:"actor_id"`
	ActorType enums.ActorType `json:"actor_type"`
	Name      string          `json:"name,omitempty"`
	Email     string          `json:"email"`
}

// RegisteredCustomer is returned once OTP verification promotes the signup.
type RegisteredCustomer struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// Service exposes registration and login state management for customers and
// admins.
type Service interface {
	StartRegistration(ctx context.Context, input StartRegistrationInput) error
	VerifyRegistration(ctx context.Context, input VerifyRegistrationInput) (*RegisteredCustomer, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Logout(ctx context.Context, customerID uuid.UUID) error
	ForceLogout(ctx context.Context, email string) error
	AdminLogin(ctx context.Context, email, password string) (*Session, error)
	AdminLogout(ctx context.Context, adminID uuid.UUID) error
}

type service struct {
	repo        AuthRepository
	tx          txRunner
	sender      mailer.Sender
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	otpTTL      time.Duration
}

// NewService builds an auth service backed by the provided stack.
func NewService(
	repo AuthRepository,
	tx txRunner,
	sender mailer.Sender,
	jwtCfg config.JWTConfig,
	passwordCfg config.PasswordConfig,
	otpCfg config.OTPConfig,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("auth repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	return &service{
		repo:        repo,
		tx:          tx,
		sender:      sender,
		jwtCfg:      jwtCfg,
		passwordCfg: passwordCfg,
		otpTTL:      otpCfg.TTL,
	}, nil
}

// StartRegistration validates the signup, stores it as pending and mails out
// a one-time code. Re-registering before verification replaces the previous
// pending row.
func (s *service) StartRegistration(ctx context.Context, input StartRegistrationInput) error {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := validateRegistration(input); err != nil {
		return err
	}

	if _, err := s.repo.FindCustomerByEmail(ctx, input.Email); err == nil {
		return pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing account")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	otp, err := security.GenerateOTP(otpLength)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate otp")
	}

	pending := &models.PendingRegistration{
		Email:         input.Email,
		Name:          input.Name,
		PasswordHash:  hash,
		Address:       input.Address,
		ContactNumber: input.ContactNumber,
		OTPCode:       otp,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.repo.UpsertPendingRegistration(ctx, pending); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store pending registration")
	}

	body := fmt.Sprintf("Your Grocerly verification code is %s. It expires in %d minutes.",
		otp, int(s.otpTTL.Minutes()))
	if err := s.sender.Send(ctx, input.Email, "Verify your Grocerly account", body); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send verification mail")
	}
	return nil
}

// VerifyRegistration promotes a pending signup into a customer account with
// an active login state.
func (s *service) VerifyRegistration(ctx context.Context, input VerifyRegistrationInput) (*RegisteredCustomer, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.OTP == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and otp are required")
	}

	var registered *RegisteredCustomer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		pending, err := repo.FindPendingRegistration(ctx, email)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "no pending registration for this email")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pending registration")
		}

		if s.otpTTL > 0 && time.Since(pending.CreatedAt) > s.otpTTL {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "verification code has expired, register again")
		}
		if subtle.ConstantTimeCompare([]byte(pending.OTPCode), []byte(input.OTP)) != 1 {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "verification code does not match")
		}

		customer := &models.Customer{
			ID:           uuid.New(),
			Name:         pending.Name,
			Email:        pending.Email,
			PasswordHash: &pending.PasswordHash,
		}
		if pending.Address != "" {
			customer.Address = &pending.Address
		}
		if pending.ContactNumber != "" {
			customer.ContactNumber = &pending.ContactNumber
		}
		if _, err := repo.CreateCustomer(ctx, customer); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer")
		}

		if err := repo.CreateLoginState(ctx, &models.LoginState{
			ActorID:   customer.ID,
			ActorType: enums.ActorTypeCustomer,
			Status:    enums.AccountStatusActive,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create login state")
		}

		if err := repo.DeletePendingRegistration(ctx, email); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear pending registration")
		}

		registered = &RegisteredCustomer{ID: customer.ID, Name: customer.Name, Email: customer.Email}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return registered, nil
}

// Login verifies credentials and marks the customer logged in. A second
// login while a session is open is rejected until a force logout clears it.
func (s *service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	customer, err := s.repo.FindCustomerByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	if customer.PasswordHash == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	ok, err := security.VerifyPassword(password, *customer.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	var session *Session
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		state, err := repo.FindLoginState(ctx, customer.ID, enums.ActorTypeCustomer)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load login state")
		}
		if state.Status != enums.AccountStatusActive {
			return pkgerrors.New(pkgerrors.CodeForbidden, "account is deactivated")
		}
		if state.LoggedIn {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "already logged in, force logout first")
		}

		now := time.Now().UTC()
		if err := repo.UpdateLoginStateFields(ctx, customer.ID, enums.ActorTypeCustomer, map[string]any{
			"logged_in":     true,
			"last_login_at": now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark logged in")
		}

		token, err := pkgauth.MintAccessToken(s.jwtCfg, now, pkgauth.AccessTokenPayload{
			ActorID:   customer.ID,
			ActorType: enums.ActorTypeCustomer,
			JTI:       uuid.NewString(),
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
		}

		session = &Session{
			Token:     token,
			ActorID:   customer.ID,
			ActorType: enums.ActorTypeCustomer,
			Name:      customer.Name,
			Email:     customer.Email,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Logout clears the logged-in flag. Fails when no session is open.
func (s *service) Logout(ctx context.Context, customerID uuid.UUID) error {
	return s.logoutActor(ctx, customerID, enums.ActorTypeCustomer)
}

// ForceLogout unconditionally clears the logged-in flag. Used before a fresh
// login when a previous session was never closed.
func (s *service) ForceLogout(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	customer, err := s.repo.FindCustomerByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}

	if err := s.repo.UpdateLoginStateFields(ctx, customer.ID, enums.ActorTypeCustomer, map[string]any{
		"logged_in":      false,
		"last_logout_at": time.Now().UTC(),
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear session")
	}
	return nil
}

// AdminLogin verifies back office credentials. Unlike the customer flow it
// does not reject an already open session.
func (s *service) AdminLogin(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	admin, err := s.repo.FindAdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load admin")
	}
	ok, err := security.VerifyPassword(password, admin.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	var session *Session
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		now := time.Now().UTC()
		state, err := repo.FindLoginState(ctx, admin.ID, enums.ActorTypeAdmin)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := repo.CreateLoginState(ctx, &models.LoginState{
				ActorID:     admin.ID,
				ActorType:   enums.ActorTypeAdmin,
				Status:      enums.AccountStatusActive,
				LoggedIn:    true,
				LastLoginAt: &now,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create login state")
			}
		case err != nil:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load login state")
		default:
			if state.Status != enums.AccountStatusActive {
				return pkgerrors.New(pkgerrors.CodeForbidden, "account is deactivated")
			}
			if err := repo.UpdateLoginStateFields(ctx, admin.ID, enums.ActorTypeAdmin, map[string]any{
				"logged_in":     true,
				"last_login_at": now,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark logged in")
			}
		}

		token, err := pkgauth.MintAccessToken(s.jwtCfg, now, pkgauth.AccessTokenPayload{
			ActorID:   admin.ID,
			ActorType: enums.ActorTypeAdmin,
			JTI:       uuid.NewString(),
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
		}

		session = &Session{
			Token:     token,
			ActorID:   admin.ID,
			ActorType: enums.ActorTypeAdmin,
			Email:     admin.Email,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// AdminLogout clears the admin's logged-in flag.
func (s *service) AdminLogout(ctx context.Context, adminID uuid.UUID) error {
	return s.logoutActor(ctx, adminID, enums.ActorTypeAdmin)
}

func (s *service) logoutActor(ctx context.Context, actorID uuid.UUID, actorType enums.ActorType) error {
	if actorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "actor id is required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		state, err := repo.FindLoginState(ctx, actorID, actorType)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load login state")
		}
		if !state.LoggedIn {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "no open session to close")
		}

		return repo.UpdateLoginStateFields(ctx, actorID, actorType, map[string]any{
			"logged_in":      false,
			"last_logout_at": time.Now().UTC(),
		})
	})
}
