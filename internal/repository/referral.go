package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/goldvault/backend/internal/model"
)

// Referral edges are written by CreateUser (zero-commission edges at
// registration) and by ApproveDeposit (commission accumulation); this file
// carries the reads and the chain walk.

func (r *Repository) GetReferralsByReferrer(ctx context.Context, referrerID uuid.UUID) ([]model.Referral, error) {
	var referrals []model.Referral
	err := r.db.SelectContext(ctx, &referrals,
		"SELECT * FROM referrals WHERE referrer_id = $1 ORDER BY created_at DESC", referrerID)
	return referrals, err
}

func (r *Repository) GetReferralStats(ctx context.Context, referrerID uuid.UUID) (*model.ReferralStats, error) {
	stats := &model.ReferralStats{}

	err := r.db.GetContext(ctx, &stats.DirectReferrals,
		"SELECT COUNT(*) FROM referrals WHERE referrer_id = $1 AND level = 1", referrerID)
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &stats.IndirectReferrals,
		"SELECT COUNT(*) FROM referrals WHERE referrer_id = $1 AND level = 2", referrerID)
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &stats.TotalCommission,
		"SELECT COALESCE(SUM(commission), 0) FROM referrals WHERE referrer_id = $1", referrerID)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// ResolveReferrerChain walks the user's referrer chain: the user named by
// referred_by at level 1, that referrer's own referrer at level 2.
func (r *Repository) ResolveReferrerChain(ctx context.Context, user *model.User) ([]model.ReferrerHop, error) {
	return resolveChain(ctx, r.db, user)
}

// resolveChain runs against either the pool or an open transaction so that
// deposit approval sees a chain consistent with the rest of its writes.
// The walk is capped at two hops; a code that resolves to nobody truncates
// the chain, it is not an error. Self-references and cycles back to the
// origin are refused.
func resolveChain(ctx context.Context, q sqlx.QueryerContext, user *model.User) ([]model.ReferrerHop, error) {
	var chain []model.ReferrerHop

	if user.ReferredBy == nil || *user.ReferredBy == "" {
		return chain, nil
	}

	direct, err := getUserWhere(ctx, q, "SELECT * FROM users WHERE referral_code = $1", *user.ReferredBy)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return chain, nil
		}
		return nil, err
	}
	if direct.ID == user.ID {
		return chain, nil
	}
	chain = append(chain, model.ReferrerHop{User: direct, Level: model.ReferralLevelDirect})

	if direct.ReferredBy == nil || *direct.ReferredBy == "" {
		return chain, nil
	}

	indirect, err := getUserWhere(ctx, q, "SELECT * FROM users WHERE referral_code = $1", *direct.ReferredBy)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return chain, nil
		}
		return nil, err
	}
	if indirect.ID == direct.ID || indirect.ID == user.ID {
		return chain, nil
	}
	chain = append(chain, model.ReferrerHop{User: indirect, Level: model.ReferralLevelIndirect})

	return chain, nil
}
