package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lromeroa/grocerly-backend/pkg/config"
	"github.com/lromeroa/grocerly-backend/pkg/db/models"
	"github.com/lromeroa/grocerly-backend/pkg/enums"
	pkgerrors "github.com/lromeroa/grocerly-backend/pkg/errors"
	"github.com/lromeroa/grocerly-backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CustomerRepository abstracts the persistence surface the service needs.
type CustomerRepository interface {
	WithTx(tx *gorm.DB) CustomerRepository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	FindByEmail(ctx context.Context, email string) (*models.Customer, error)
	List(ctx context.Context, query string) ([]models.Customer, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	FindLoginState(ctx context.Context, customerID uuid.UUID) (*models.LoginState, error)
	UpdateLoginStateFields(ctx context.Context, customerID uuid.UUID, fields map[string]any) error
}

// CustomerDTO is the customer account read model.
type CustomerDTO struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Address       *string   `json:"address,omitempty"`
	ContactNumber *string   `json:"contact_number,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// UpdateDetailsInput holds optional mutation values for a customer account.
type UpdateDetailsInput struct {
	Name          *string
	Email         *string
	Address       *string
	ContactNumber *string
	Password      *string
}

// Service exposes customer account management.
type Service interface {
	Get(ctx context.Context, customerID uuid.UUID) (*CustomerDTO, error)
	List(ctx context.Context, query string) ([]CustomerDTO, error)
	UpdateDetails(ctx context.Context, customerID uuid.UUID, input UpdateDetailsInput) (*CustomerDTO, error)
	SoftDelete(ctx context.Context, customerID uuid.UUID) error
	Restore(ctx context.Context, customerID uuid.UUID) error
	RestoreByCredentials(ctx context.Context, email, password string) error
}

type service struct {
	repo        CustomerRepository
	tx          txRunner
	passwordCfg config.PasswordConfig
}

// NewService builds a customers service backed by the provided stack.
func NewService(repo CustomerRepository, tx txRunner, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, passwordCfg: passwordCfg}, nil
}

// Get returns the customer account with its standing.
func (s *service) Get(ctx context.Context, customerID uuid.UUID) (*CustomerDTO, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}

	customer, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}

	status := enums.AccountStatusActive
	if state, err := s.repo.FindLoginState(ctx, customerID); err == nil {
		status = state.Status
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load login state")
	}

	dto := toDTO(*customer, status)
	return &dto, nil
}

// List returns customer accounts, optionally filtered by a name or email
// substring. Back office only.
func (s *service) List(ctx context.Context, query string) ([]CustomerDTO, error) {
	rows, err := s.repo.List(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}

	out := make([]CustomerDTO, 0, len(rows))
	for _, row := range rows {
		status := enums.AccountStatusActive
		if state, err := s.repo.FindLoginState(ctx, row.ID); err == nil {
			status = state.Status
		}
		out = append(out, toDTO(row, status))
	}
	return out, nil
}

// UpdateDetails applies a partial profile mutation. Password changes record
// the previous and new hashes on the login state row.
func (s *service) UpdateDetails(ctx context.Context, customerID uuid.UUID, input UpdateDetailsInput) (*CustomerDTO, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}

	var dto CustomerDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		customer, err := repo.FindByID(ctx, customerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
		}

		fields := map[string]any{}
		if input.Name != nil {
			if strings.TrimSpace(*input.Name) == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
			}
			fields["name"] = *input.Name
			customer.Name = *input.Name
		}
		if input.Email != nil && *input.Email != customer.Email {
			if other, err := repo.FindByEmail(ctx, *input.Email); err == nil && other.ID != customerID {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already in use")
			} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check email")
			}
			fields["email"] = *input.Email
			customer.Email = *input.Email
		}
		if input.Address != nil {
			fields["address"] = *input.Address
			customer.Address = input.Address
		}
		if input.ContactNumber != nil {
			fields["contact_number"] = *input.ContactNumber
			customer.ContactNumber = input.ContactNumber
		}

		if input.Password != nil {
			hash, err := security.HashPassword(*input.Password, s.passwordCfg)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
			}
			stateFields := map[string]any{
				"updated_password_hash": hash,
			}
			if customer.PasswordHash != nil {
				stateFields["old_password_hash"] = *customer.PasswordHash
			}
			if err := repo.UpdateLoginStateFields(ctx, customerID, stateFields); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record password change")
			}
			fields["password_hash"] = hash
			customer.PasswordHash = &hash
		}

		if err := repo.UpdateFields(ctx, customerID, fields); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer")
		}

		status := enums.AccountStatusActive
		if state, err := repo.FindLoginState(ctx, customerID); err == nil {
			status = state.Status
		}
		dto = toDTO(*customer, status)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

// SoftDelete marks the account inactive. Data stays in place for restore.
func (s *service) SoftDelete(ctx context.Context, customerID uuid.UUID) error {
	if customerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		state, err := repo.FindLoginState(ctx, customerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load login state")
		}
		if state.Status == enums.AccountStatusInactive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "account is already deactivated")
		}

		return repo.UpdateLoginStateFields(ctx, customerID, map[string]any{
			"status":    enums.AccountStatusInactive,
			"logged_in": false,
		})
	})
}

// Restore reactivates a soft-deleted account.
func (s *service) Restore(ctx context.Context, customerID uuid.UUID) error {
	if customerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		state, err := repo.FindLoginState(ctx, customerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load login state")
		}
		if state.Status == enums.AccountStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "account is already active")
		}

		return repo.UpdateLoginStateFields(ctx, customerID, map[string]any{
			"status": enums.AccountStatusActive,
		})
	})
}

// RestoreByCredentials lets the account owner reactivate their own account
// by proving the email and password, since a deactivated account cannot log
// in to reach the authenticated surface.
func (s *service) RestoreByCredentials(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	customer, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	if customer.PasswordHash == nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	ok, err := security.VerifyPassword(password, *customer.PasswordHash)
	if err != nil || !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	return s.Restore(ctx, customer.ID)
}

func toDTO(customer models.Customer, status enums.AccountStatus) CustomerDTO {
	return CustomerDTO{
		ID:            customer.ID,
		Name:          customer.Name,
		Email:         customer.Email,
		Address:       customer.Address,
		ContactNumber: customer.ContactNumber,
		Status:        status.String(),
		CreatedAt:     customer.CreatedAt,
	}
}
