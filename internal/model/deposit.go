package model

import (
	"time"

	"github.com/google/uuid"
)

type DepositStatus string

const (
	DepositStatusPending  DepositStatus = "pending"
	DepositStatusApproved DepositStatus = "approved"
	DepositStatusRejected DepositStatus = "rejected"
)

type Deposit struct {
	ID         uuid.UUID     `json:"id" db:"id"`
	UserID     uuid.UUID     `json:"user_id" db:"user_id"`
	Amount     float64       `json:"amount" db:"amount"`
	Status     DepositStatus `json:"status" db:"status"`
	TxHash     string        `json:"tx_hash" db:"tx_hash"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
	ApprovedAt *time.Time    `json:"approved_at,omitempty" db:"approved_at"`
}

// EarningStart is the instant from which the deposit's principal earns interest.
func (d *Deposit) EarningStart() time.Time {
	if d.ApprovedAt != nil {
		return *d.ApprovedAt
	}
	return d.CreatedAt
}
