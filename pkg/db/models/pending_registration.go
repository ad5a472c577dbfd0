package models

import "time"

// PendingRegistration holds a signup awaiting email OTP verification.
// Rows are upserted on registration start and removed once verified.
type PendingRegistration struct {
	Email         string    `gorm:"column:email;type:text;primaryKey"`
	Name          string    `gorm:"column:name;not null"`
	PasswordHash  string    `gorm:"column:password_hash;not null"`
	Address       string    `gorm:"column:address;not null"`
	ContactNumber string    `gorm:"column:contact_number"`
	OTPCode       string    `gorm:"column:otp_code;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}
