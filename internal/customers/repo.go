package customers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lromeroa/grocerly-backend/pkg/db/models"
	"github.com/lromeroa/grocerly-backend/pkg/enums"
)

// Repository exposes persistence operations for customer accounts and their
// login state rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a customers repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CustomerRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID loads a customer by identifier.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// FindByEmail loads a customer by email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// List returns customers newest first, optionally filtered by a name or
// email substring.
func (r *Repository) List(ctx context.Context, query string) ([]models.Customer, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if query != "" {
		pattern := "%" + query + "%"
		q = q.Where("name LIKE ? OR email LIKE ?", pattern, pattern)
	}

	var rows []models.Customer
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateFields applies a partial column update to a customer.
func (r *Repository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// FindLoginState loads the customer's login state row.
func (r *Repository) FindLoginState(ctx context.Context, customerID uuid.UUID) (*models.LoginState, error) {
	var state models.LoginState
	err := r.db.WithContext(ctx).
		Where("actor_id = ? AND actor_type = ?", customerID, enums.ActorTypeCustomer).
		First(&state).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// UpdateLoginStateFields applies a partial update to the login state row.
func (r *Repository) UpdateLoginStateFields(ctx context.Context, customerID uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.LoginState{}).
		Where("actor_id = ? AND actor_type = ?", customerID, enums.ActorTypeCustomer).
		Updates(fields).Error
}
