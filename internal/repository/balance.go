package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/goldvault/backend/internal/accrual"
	"github.com/goldvault/backend/internal/model"
)

var ErrInsufficientBalance = errors.New("insufficient balance")

// applyBalanceChange mutates a user's balance inside an open transaction and
// writes the matching balance_transactions audit row. The user row is locked
// for the remainder of the transaction, which serializes all balance writes
// for that user. Debits that would take the balance negative fail with
// ErrInsufficientBalance.
func applyBalanceChange(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount float64, txType model.TransactionType, description string, referenceID *uuid.UUID) (float64, error) {
	var balanceBefore float64
	err := tx.GetContext(ctx, &balanceBefore, "SELECT balance FROM users WHERE id = $1 FOR UPDATE", userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}

	balanceAfter := balanceBefore + amount
	if amount < 0 && balanceAfter < 0 {
		return balanceBefore, ErrInsufficientBalance
	}

	_, err = tx.ExecContext(ctx, "UPDATE users SET balance = $1, updated_at = NOW() WHERE id = $2", balanceAfter, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to update balance: %w", err)
	}

	if err := recordTransaction(ctx, tx, userID, amount, txType, description, referenceID, balanceBefore, balanceAfter); err != nil {
		return 0, err
	}

	return balanceAfter, nil
}

func recordTransaction(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount float64, txType model.TransactionType, description string, referenceID *uuid.UUID, balanceBefore, balanceAfter float64) error {
	var desc *string
	if description != "" {
		desc = &description
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO balance_transactions (user_id, amount, type, description, reference_id, balance_before, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		userID, amount, txType, desc, referenceID, balanceBefore, balanceAfter)
	if err != nil {
		return fmt.Errorf("failed to create transaction record: %w", err)
	}
	return nil
}

// ReconcileBalance brings a user's balance up to date with accrued interest
// as of observedAt. The user row is locked first, so concurrent reconciles
// for the same user serialize and the delta is applied exactly once: the
// second transaction re-reads a last_accrual_at that already advanced and
// computes a zero delta. No write is issued when nothing accrued.
func (r *Repository) ReconcileBalance(ctx context.Context, userID uuid.UUID, observedAt time.Time) (*model.User, error) {
	var updated *model.User
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		user, err := getUserWhere(ctx, tx, "SELECT * FROM users WHERE id = $1 FOR UPDATE", userID)
		if err != nil {
			return err
		}

		var deposits []model.Deposit
		err = tx.SelectContext(ctx, &deposits,
			"SELECT * FROM deposits WHERE user_id = $1 AND status = 'approved'", userID)
		if err != nil {
			return err
		}

		delta := accrual.Calculate(deposits, user.LastAccrualAt, observedAt)
		if delta <= 0 {
			updated = user
			return nil
		}

		balanceAfter := user.Balance + delta
		_, err = tx.ExecContext(ctx,
			"UPDATE users SET balance = $1, last_accrual_at = $2, updated_at = NOW() WHERE id = $3",
			balanceAfter, observedAt, userID)
		if err != nil {
			return fmt.Errorf("failed to apply accrual: %w", err)
		}

		days := accrual.WholeDays(user.LastAccrualAt, observedAt)
		desc := fmt.Sprintf("Daily ROI: +%.2f (%d day(s) at %.1f%%)", delta, days, accrual.DailyRate*100)
		if err := recordTransaction(ctx, tx, userID, delta, model.TransactionTypeAccrual, desc, nil, user.Balance, balanceAfter); err != nil {
			return err
		}

		user.Balance = balanceAfter
		user.LastAccrualAt = observedAt
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// GetBalanceTransactions returns balance history for a user, newest first.
func (r *Repository) GetBalanceTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.BalanceTransaction, error) {
	var transactions []model.BalanceTransaction
	err := r.db.SelectContext(ctx, &transactions, `
		SELECT * FROM balance_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	return transactions, err
}
