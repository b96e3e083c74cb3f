package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/goldvault/backend/internal/accrual"
	"github.com/goldvault/backend/internal/model"
)

var (
	ErrDepositNotFound   = errors.New("deposit not found")
	ErrDepositNotPending = errors.New("deposit already resolved")
)

func (r *Repository) CreateDeposit(ctx context.Context, deposit *model.Deposit) error {
	query := `
		INSERT INTO deposits (user_id, amount, status, tx_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		deposit.UserID,
		deposit.Amount,
		deposit.Status,
		deposit.TxHash,
	).Scan(&deposit.ID, &deposit.CreatedAt)
}

func (r *Repository) GetDeposit(ctx context.Context, id uuid.UUID) (*model.Deposit, error) {
	var deposit model.Deposit
	err := r.db.GetContext(ctx, &deposit, "SELECT * FROM deposits WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDepositNotFound
		}
		return nil, err
	}
	return &deposit, nil
}

func (r *Repository) ListDepositsByUser(ctx context.Context, userID uuid.UUID) ([]model.Deposit, error) {
	var deposits []model.Deposit
	err := r.db.SelectContext(ctx, &deposits,
		"SELECT * FROM deposits WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return deposits, err
}

// ListApprovedDeposits returns the user's principal schedule for accrual.
func (r *Repository) ListApprovedDeposits(ctx context.Context, userID uuid.UUID) ([]model.Deposit, error) {
	var deposits []model.Deposit
	err := r.db.SelectContext(ctx, &deposits,
		"SELECT * FROM deposits WHERE user_id = $1 AND status = 'approved' ORDER BY created_at", userID)
	return deposits, err
}

func (r *Repository) ListDepositsByStatus(ctx context.Context, status model.DepositStatus, limit, offset int) ([]model.Deposit, error) {
	var deposits []model.Deposit
	err := r.db.SelectContext(ctx, &deposits, `
		SELECT * FROM deposits
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2 OFFSET $3`,
		status, limit, offset)
	return deposits, err
}

// ApproveDeposit moves a pending deposit to approved and applies every
// balance side-effect of the transition in one transaction: the depositor's
// principal credit, and for each resolvable referrer both the commission
// credit to their balance and the commission increment on the referral edge.
// Either all of it commits or none of it does.
func (r *Repository) ApproveDeposit(ctx context.Context, depositID uuid.UUID, approvedAt time.Time) (*model.Deposit, []model.CommissionCredit, error) {
	var (
		approved *model.Deposit
		credits  []model.CommissionCredit
	)

	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		credits = credits[:0]

		deposit, err := lockDeposit(ctx, tx, depositID)
		if err != nil {
			return err
		}
		if deposit.Status != model.DepositStatusPending {
			return ErrDepositNotPending
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE deposits SET status = $1, approved_at = $2 WHERE id = $3",
			model.DepositStatusApproved, approvedAt, depositID)
		if err != nil {
			return err
		}
		deposit.Status = model.DepositStatusApproved
		deposit.ApprovedAt = &approvedAt

		depositor, err := getUserWhere(ctx, tx, "SELECT * FROM users WHERE id = $1 FOR UPDATE", deposit.UserID)
		if err != nil {
			return err
		}

		desc := fmt.Sprintf("Deposit approved: +%.2f", deposit.Amount)
		if _, err := applyBalanceChange(ctx, tx, depositor.ID, deposit.Amount, model.TransactionTypeDeposit, desc, &deposit.ID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE users SET total_deposited = total_deposited + $1 WHERE id = $2",
			deposit.Amount, depositor.ID)
		if err != nil {
			return err
		}

		chain, err := resolveChain(ctx, tx, depositor)
		if err != nil {
			return err
		}

		for _, hop := range chain {
			amount := accrual.Commission(deposit.Amount, hop.Level)
			if amount <= 0 {
				continue
			}

			desc := fmt.Sprintf("Level %d referral commission: +%.2f", hop.Level, amount)
			if _, err := applyBalanceChange(ctx, tx, hop.User.ID, amount, model.TransactionTypeReferralCommission, desc, &deposit.ID); err != nil {
				return err
			}

			// The edge normally exists since registration; the upsert also
			// repairs edges that predate edge bookkeeping.
			_, err = tx.ExecContext(ctx, `
				INSERT INTO referrals (referrer_id, referred_id, level, commission)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (referred_id, level)
				DO UPDATE SET commission = referrals.commission + EXCLUDED.commission`,
				hop.User.ID, depositor.ID, hop.Level, amount)
			if err != nil {
				return err
			}

			credits = append(credits, model.CommissionCredit{
				ReferrerID: hop.User.ID,
				Level:      hop.Level,
				Amount:     amount,
			})
		}

		approved = deposit
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return approved, credits, nil
}

// RejectDeposit moves a pending deposit to rejected. No balance effect, no
// commission.
func (r *Repository) RejectDeposit(ctx context.Context, depositID uuid.UUID) (*model.Deposit, error) {
	var rejected *model.Deposit
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		deposit, err := lockDeposit(ctx, tx, depositID)
		if err != nil {
			return err
		}
		if deposit.Status != model.DepositStatusPending {
			return ErrDepositNotPending
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE deposits SET status = $1 WHERE id = $2",
			model.DepositStatusRejected, depositID)
		if err != nil {
			return err
		}
		deposit.Status = model.DepositStatusRejected
		rejected = deposit
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

func lockDeposit(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Deposit, error) {
	var deposit model.Deposit
	err := tx.GetContext(ctx, &deposit, "SELECT * FROM deposits WHERE id = $1 FOR UPDATE", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDepositNotFound
		}
		return nil, err
	}
	return &deposit, nil
}
