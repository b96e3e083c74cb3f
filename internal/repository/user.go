package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/goldvault/backend/internal/model"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailTaken        = errors.New("email already registered")
	ErrReferralCodeTaken = errors.New("referral code already taken")
)

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return getUserWhere(ctx, r.db, "SELECT * FROM users WHERE id = $1", id)
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return getUserWhere(ctx, r.db, "SELECT * FROM users WHERE email = $1", email)
}

func (r *Repository) GetUserByReferralCode(ctx context.Context, code string) (*model.User, error) {
	return getUserWhere(ctx, r.db, "SELECT * FROM users WHERE referral_code = $1", code)
}

// getUserWhere works over both the pool and an open transaction.
func getUserWhere(ctx context.Context, q sqlx.QueryerContext, query string, args ...interface{}) (*model.User, error) {
	var user model.User
	err := sqlx.GetContext(ctx, q, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts the user and, when referred_by resolves, the level-1 and
// level-2 referral edges with zero commission, all in one transaction. A
// failure creating any edge rolls the whole registration back.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO users (email, password_hash, referral_code, referred_by, is_admin)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, balance, total_deposited, total_withdrawn, last_accrual_at, created_at, updated_at`

		err := tx.QueryRowContext(ctx, query,
			user.Email,
			user.PasswordHash,
			user.ReferralCode,
			user.ReferredBy,
			user.IsAdmin,
		).Scan(
			&user.ID,
			&user.Balance,
			&user.TotalDeposited,
			&user.TotalWithdrawn,
			&user.LastAccrualAt,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return err
		}

		chain, err := resolveChain(ctx, tx, user)
		if err != nil {
			return err
		}
		for _, hop := range chain {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO referrals (referrer_id, referred_id, level, commission)
				VALUES ($1, $2, $3, 0)`,
				hop.User.ID, user.ID, hop.Level)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		switch {
		case isUniqueViolation(err, "users_email_key"):
			return ErrEmailTaken
		case isUniqueViolation(err, "users_referral_code_key"):
			return ErrReferralCodeTaken
		}
		return err
	}
	return nil
}

func (r *Repository) ListUsers(ctx context.Context, limit, offset int) ([]model.User, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM users"); err != nil {
		return nil, 0, err
	}

	var users []model.User
	err := r.db.SelectContext(ctx, &users, `
		SELECT * FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`,
		limit, offset)
	return users, total, err
}

// ListUserIDs returns every user id, for the periodic accrual sweep.
func (r *Repository) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids, "SELECT id FROM users ORDER BY created_at")
	return ids, err
}
