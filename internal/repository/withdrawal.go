package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/goldvault/backend/internal/model"
)

var (
	ErrWithdrawalNotFound = errors.New("withdrawal not found")
	ErrWithdrawalResolved = errors.New("withdrawal already resolved")
)

// CreateWithdrawal inserts the withdrawal and reserves the requested amount
// by deducting it from the user's balance, as one transaction. A balance
// shortfall fails the whole request with ErrInsufficientBalance.
func (r *Repository) CreateWithdrawal(ctx context.Context, withdrawal *model.Withdrawal) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO withdrawals (user_id, amount, wallet_address, status)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at`

		err := tx.QueryRowContext(ctx, query,
			withdrawal.UserID,
			withdrawal.Amount,
			withdrawal.WalletAddress,
			withdrawal.Status,
		).Scan(&withdrawal.ID, &withdrawal.CreatedAt)
		if err != nil {
			return err
		}

		desc := fmt.Sprintf("Withdrawal requested: -%.2f", withdrawal.Amount)
		_, err = applyBalanceChange(ctx, tx, withdrawal.UserID, -withdrawal.Amount,
			model.TransactionTypeWithdrawalRequest, desc, &withdrawal.ID)
		return err
	})
}

func (r *Repository) GetWithdrawal(ctx context.Context, id uuid.UUID) (*model.Withdrawal, error) {
	var withdrawal model.Withdrawal
	err := r.db.GetContext(ctx, &withdrawal, "SELECT * FROM withdrawals WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWithdrawalNotFound
		}
		return nil, err
	}
	return &withdrawal, nil
}

func (r *Repository) ListWithdrawalsByUser(ctx context.Context, userID uuid.UUID) ([]model.Withdrawal, error) {
	var withdrawals []model.Withdrawal
	err := r.db.SelectContext(ctx, &withdrawals,
		"SELECT * FROM withdrawals WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return withdrawals, err
}

func (r *Repository) ListWithdrawalsByStatus(ctx context.Context, status model.WithdrawalStatus, limit, offset int) ([]model.Withdrawal, error) {
	var withdrawals []model.Withdrawal
	err := r.db.SelectContext(ctx, &withdrawals, `
		SELECT * FROM withdrawals
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2 OFFSET $3`,
		status, limit, offset)
	return withdrawals, err
}

// MarkWithdrawalProcessing moves a pending withdrawal into the transient
// processing state. No balance effect.
func (r *Repository) MarkWithdrawalProcessing(ctx context.Context, id uuid.UUID) (*model.Withdrawal, error) {
	var updated *model.Withdrawal
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		withdrawal, err := lockWithdrawal(ctx, tx, id)
		if err != nil {
			return err
		}
		if withdrawal.IsTerminal() {
			return ErrWithdrawalResolved
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE withdrawals SET status = $1 WHERE id = $2",
			model.WithdrawalStatusProcessing, id)
		if err != nil {
			return err
		}
		withdrawal.Status = model.WithdrawalStatusProcessing
		updated = withdrawal
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ResolveWithdrawal applies a terminal outcome. Completion moves the
// reserved amount into total_withdrawn; rejection restores it to the
// balance. Resolving an already-terminal withdrawal is an error, never a
// silent re-application.
func (r *Repository) ResolveWithdrawal(ctx context.Context, id uuid.UUID, outcome model.WithdrawalStatus, processedAt time.Time) (*model.Withdrawal, error) {
	if outcome != model.WithdrawalStatusCompleted && outcome != model.WithdrawalStatusRejected {
		return nil, fmt.Errorf("invalid withdrawal outcome: %s", outcome)
	}

	var resolved *model.Withdrawal
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		withdrawal, err := lockWithdrawal(ctx, tx, id)
		if err != nil {
			return err
		}
		if withdrawal.IsTerminal() {
			return ErrWithdrawalResolved
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE withdrawals SET status = $1, processed_at = $2 WHERE id = $3",
			outcome, processedAt, id)
		if err != nil {
			return err
		}

		switch outcome {
		case model.WithdrawalStatusCompleted:
			_, err = tx.ExecContext(ctx,
				"UPDATE users SET total_withdrawn = total_withdrawn + $1, updated_at = NOW() WHERE id = $2",
				withdrawal.Amount, withdrawal.UserID)
			if err != nil {
				return err
			}
		case model.WithdrawalStatusRejected:
			desc := fmt.Sprintf("Withdrawal rejected, refund: +%.2f", withdrawal.Amount)
			_, err = applyBalanceChange(ctx, tx, withdrawal.UserID, withdrawal.Amount,
				model.TransactionTypeWithdrawalRefund, desc, &withdrawal.ID)
			if err != nil {
				return err
			}
		}

		withdrawal.Status = outcome
		withdrawal.ProcessedAt = &processedAt
		resolved = withdrawal
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

func lockWithdrawal(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Withdrawal, error) {
	var withdrawal model.Withdrawal
	err := tx.GetContext(ctx, &withdrawal, "SELECT * FROM withdrawals WHERE id = $1 FOR UPDATE", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWithdrawalNotFound
		}
		return nil, err
	}
	return &withdrawal, nil
}
