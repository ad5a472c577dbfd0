package auth

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lromeroa/grocerly-backend/pkg/db/models"
	"github.com/lromeroa/grocerly-backend/pkg/enums"
)

// Repository exposes persistence operations for registration and login state.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an auth repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) AuthRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// UpsertPendingRegistration inserts or refreshes the pending signup keyed by
// email. Re-registering before verification replaces the previous attempt.
func (r *Repository) UpsertPendingRegistration(ctx context.Context, pending *models.PendingRegistration) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "password_hash", "address", "contact_number", "otp_code", "created_at",
			}),
		}).
		Create(pending).Error
}

// FindPendingRegistration loads a pending signup by email.
func (r *Repository) FindPendingRegistration(ctx context.Context, email string) (*models.PendingRegistration, error) {
	var pending models.PendingRegistration
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&pending).Error
	if err != nil {
		return nil, err
	}
	return &pending, nil
}

// DeletePendingRegistration removes a pending signup.
func (r *Repository) DeletePendingRegistration(ctx context.Context, email string) error {
	return r.db.WithContext(ctx).
		Where("email = ?", email).
		Delete(&models.PendingRegistration{}).Error
}

// CreateCustomer inserts a verified customer account.
func (r *Repository) CreateCustomer(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	if err := r.db.WithContext(ctx).Create(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

// FindCustomerByEmail loads a customer by email.
func (r *Repository) FindCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// FindAdminByEmail loads an admin by email.
func (r *Repository) FindAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var admin models.Admin
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&admin).Error
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

// CreateLoginState inserts the login state row for a new actor.
func (r *Repository) CreateLoginState(ctx context.Context, state *models.LoginState) error {
	return r.db.WithContext(ctx).Create(state).Error
}

// FindLoginState loads the login state row for an actor.
func (r *Repository) FindLoginState(ctx context.Context, actorID uuid.UUID, actorType enums.ActorType) (*models.LoginState, error) {
	var state models.LoginState
	err := r.db.WithContext(ctx).
		Where("actor_id = ? AND actor_type = ?", actorID, actorType).
		First(&state).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// UpdateLoginStateFields applies a partial update to an actor's login state.
func (r *Repository) UpdateLoginStateFields(ctx context.Context, actorID uuid.UUID, actorType enums.ActorType, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.LoginState{}).
		Where("actor_id = ? AND actor_type = ?", actorID, actorType).
		Updates(fields).Error
}
