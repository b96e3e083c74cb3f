// Package accrual holds the money math of the platform: daily ROI on approved
// deposit principal and referral commission on deposit approval. Everything
// here is a pure function of its arguments; callers pass the observation
// instant explicitly and own the persistence of results.
package accrual

import (
	"time"

	"github.com/goldvault/backend/internal/model"
)

const (
	// DailyRate is the simple (non-compounding) interest rate per whole
	// elapsed day, applied to each approved deposit's principal.
	DailyRate = 0.018

	// Commission rates paid to the referral chain when a deposit is approved.
	DirectCommissionRate   = 0.12
	IndirectCommissionRate = 0.08
)

// WholeDays returns the number of full 24h periods between from and to.
// Returns 0 when to is not after from.
func WholeDays(from, to time.Time) int {
	if !to.After(from) {
		return 0
	}
	return int(to.Sub(from).Hours() / 24)
}

// Calculate returns the interest earned by the given deposits between
// lastAccrualAt and observedAt. Only approved deposits earn. A deposit
// approved after lastAccrualAt earns from its own approval instant, never
// retroactively from lastAccrualAt. The result is zero when no deposit has
// crossed a day boundary, so callers can skip the write entirely.
func Calculate(deposits []model.Deposit, lastAccrualAt, observedAt time.Time) float64 {
	var total float64
	for i := range deposits {
		d := &deposits[i]
		if d.Status != model.DepositStatusApproved {
			continue
		}
		start := lastAccrualAt
		if es := d.EarningStart(); es.After(start) {
			start = es
		}
		days := WholeDays(start, observedAt)
		if days == 0 {
			continue
		}
		total += d.Amount * DailyRate * float64(days)
	}
	return total
}

// Commission returns the payout owed to a referrer at the given chain level
// for an approved deposit of the given amount. Unknown levels pay nothing.
func Commission(amount float64, level int) float64 {
	switch level {
	case model.ReferralLevelDirect:
		return amount * DirectCommissionRate
	case model.ReferralLevelIndirect:
		return amount * IndirectCommissionRate
	default:
		return 0
	}
}
