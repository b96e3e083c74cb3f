package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/goldvault/backend/internal/model"
	"github.com/goldvault/backend/internal/repository"
)

type BalanceService struct {
	repo *repository.Repository
}

func NewBalanceService(repo *repository.Repository) *BalanceService {
	return &BalanceService{repo: repo}
}

// Reconcile applies any interest earned since the user's last accrual and
// returns the up-to-date user. Called before every balance-sensitive read.
func (s *BalanceService) Reconcile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	now := time.Now().UTC()
	return retryOnce(func() (*model.User, error) {
		return s.repo.ReconcileBalance(ctx, userID, now)
	})
}

// GetTransactions returns balance history.
func (s *BalanceService) GetTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.BalanceTransaction, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.GetBalanceTransactions(ctx, userID, limit, offset)
}
