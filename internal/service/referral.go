package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/goldvault/backend/internal/model"
	"github.com/goldvault/backend/internal/repository"
)

type ReferralService struct {
	repo *repository.Repository
}

func NewReferralService(repo *repository.Repository) *ReferralService {
	return &ReferralService{repo: repo}
}

func (s *ReferralService) GetReferrals(ctx context.Context, referrerID uuid.UUID) ([]model.Referral, error) {
	return s.repo.GetReferralsByReferrer(ctx, referrerID)
}

func (s *ReferralService) GetStats(ctx context.Context, referrerID uuid.UUID) (*model.ReferralStats, error) {
	return s.repo.GetReferralStats(ctx, referrerID)
}

// ResolveChain returns the user's ancestor referrers, nearest first, capped
// at two levels.
func (s *ReferralService) ResolveChain(ctx context.Context, user *model.User) ([]model.ReferrerHop, error) {
	return s.repo.ResolveReferrerChain(ctx, user)
}

func (s *ReferralService) GetReferralLink(appURL string, user *model.User) string {
	return appURL + "/auth/register?ref=" + user.ReferralCode
}
