package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Email          string    `json:"email" db:"email"`
	PasswordHash   string    `json:"-" db:"password_hash"`
	ReferralCode   string    `json:"referral_code" db:"referral_code"`
	ReferredBy     *string   `json:"referred_by,omitempty" db:"referred_by"`
	Balance        float64   `json:"balance" db:"balance"`
	TotalDeposited float64   `json:"total_deposited" db:"total_deposited"`
	TotalWithdrawn float64   `json:"total_withdrawn" db:"total_withdrawn"`
	IsAdmin        bool      `json:"is_admin" db:"is_admin"`
	LastAccrualAt  time.Time `json:"last_accrual_at" db:"last_accrual_at"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
