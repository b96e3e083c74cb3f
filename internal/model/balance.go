package model

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypeDeposit            TransactionType = "deposit"
	TransactionTypeAccrual            TransactionType = "roi_accrual"
	TransactionTypeReferralCommission TransactionType = "referral_commission"
	TransactionTypeWithdrawalRequest  TransactionType = "withdrawal_request"
	TransactionTypeWithdrawalRefund   TransactionType = "withdrawal_refund"
)

type BalanceTransaction struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	UserID        uuid.UUID       `json:"user_id" db:"user_id"`
	Amount        float64         `json:"amount" db:"amount"` // positive = credit, negative = debit
	Type          TransactionType `json:"type" db:"type"`
	Description   *string         `json:"description,omitempty" db:"description"`
	ReferenceID   *uuid.UUID      `json:"reference_id,omitempty" db:"reference_id"`
	BalanceBefore float64         `json:"balance_before" db:"balance_before"`
	BalanceAfter  float64         `json:"balance_after" db:"balance_after"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}
