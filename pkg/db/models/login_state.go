package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lromeroa/grocerly-backend/pkg/enums"
)

// LoginState tracks per-actor session flags and account standing.
// One row per (actor, actor type); login/logout only flip the booleans.
type LoginState struct {
	ActorID             uuid.UUID           `gorm:"column:actor_id;type:uuid;primaryKey"`
	ActorType           enums.ActorType     `gorm:"column:actor_type;primaryKey"`
	Status              enums.AccountStatus `gorm:"column:status;not null;default:'active'"`
	LoggedIn            bool                `gorm:"column:logged_in;not null;default:false"`
	LastLoginAt         *time.Time          `gorm:"column:last_login_at"`
	LastLogoutAt        *time.Time          `gorm:"column:last_logout_at"`
	OldPasswordHash     *string             `gorm:"column:old_password_hash"`
	UpdatedPasswordHash *string             `gorm:"column:updated_password_hash"`
	UpdatedAt           time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
