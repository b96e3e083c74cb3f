package model

import (
	"time"

	"github.com/google/uuid"
)

// Referral levels
const (
	ReferralLevelDirect   = 1
	ReferralLevelIndirect = 2
)

// Referral is an edge in the referral tree. Commission accumulates on the edge
// every time the referred user's deposit is approved.
type Referral struct {
	ID         uuid.UUID `json:"id" db:"id"`
	ReferrerID uuid.UUID `json:"referrer_id" db:"referrer_id"`
	ReferredID uuid.UUID `json:"referred_id" db:"referred_id"`
	Level      int       `json:"level" db:"level"`
	Commission float64   `json:"commission" db:"commission"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

type ReferralStats struct {
	DirectReferrals   int     `json:"direct_referrals"`
	IndirectReferrals int     `json:"indirect_referrals"`
	TotalCommission   float64 `json:"total_commission"`
}

// ReferrerHop is one ancestor in a resolved referral chain.
type ReferrerHop struct {
	User  *User
	Level int
}

// CommissionCredit describes a single commission payout applied during
// deposit approval.
type CommissionCredit struct {
	ReferrerID uuid.UUID `json:"referrer_id"`
	Level      int       `json:"level"`
	Amount     float64   `json:"amount"`
}
