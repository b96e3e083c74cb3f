package model

import (
	"time"

	"github.com/google/uuid"
)

type WithdrawalStatus string

const (
	WithdrawalStatusPending    WithdrawalStatus = "pending"
	WithdrawalStatusProcessing WithdrawalStatus = "processing"
	WithdrawalStatusCompleted  WithdrawalStatus = "completed"
	WithdrawalStatusRejected   WithdrawalStatus = "rejected"
)

type Withdrawal struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	UserID        uuid.UUID        `json:"user_id" db:"user_id"`
	Amount        float64          `json:"amount" db:"amount"`
	WalletAddress string           `json:"wallet_address" db:"wallet_address"`
	Status        WithdrawalStatus `json:"status" db:"status"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	ProcessedAt   *time.Time       `json:"processed_at,omitempty" db:"processed_at"`
}

// IsTerminal reports whether the withdrawal has already been resolved.
func (w *Withdrawal) IsTerminal() bool {
	return w.Status == WithdrawalStatusCompleted || w.Status == WithdrawalStatusRejected
}
