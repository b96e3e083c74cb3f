package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/goldvault/backend/internal/model"
	"github.com/goldvault/backend/internal/repository"
)

// AdminService carries the operator actions: resolving pending deposits and
// withdrawals and reading platform-wide aggregates. The money side-effects
// of each resolution live in the repository as single transactions; this
// layer adds validation, conflict retry and pagination defaults.
type AdminService struct {
	repo *repository.Repository
}

func NewAdminService(repo *repository.Repository) *AdminService {
	return &AdminService{repo: repo}
}

func (s *AdminService) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.IsAdmin, nil
}

// ApproveDeposit transitions a pending deposit to approved, crediting the
// depositor and fanning commission out to the referral chain. Returns the
// commission credits that were applied.
func (s *AdminService) ApproveDeposit(ctx context.Context, depositID uuid.UUID) (*model.Deposit, []model.CommissionCredit, error) {
	approvedAt := time.Now().UTC()
	type result struct {
		deposit *model.Deposit
		credits []model.CommissionCredit
	}
	res, err := retryOnce(func() (result, error) {
		d, c, err := s.repo.ApproveDeposit(ctx, depositID, approvedAt)
		return result{d, c}, err
	})
	if err != nil {
		return nil, nil, err
	}
	return res.deposit, res.credits, nil
}

func (s *AdminService) RejectDeposit(ctx context.Context, depositID uuid.UUID) (*model.Deposit, error) {
	return retryOnce(func() (*model.Deposit, error) {
		return s.repo.RejectDeposit(ctx, depositID)
	})
}

// MarkWithdrawalProcessing flags a withdrawal as being paid out.
func (s *AdminService) MarkWithdrawalProcessing(ctx context.Context, withdrawalID uuid.UUID) (*model.Withdrawal, error) {
	return retryOnce(func() (*model.Withdrawal, error) {
		return s.repo.MarkWithdrawalProcessing(ctx, withdrawalID)
	})
}

// CompleteWithdrawal finalizes a payout: the reserved amount becomes
// total_withdrawn.
func (s *AdminService) CompleteWithdrawal(ctx context.Context, withdrawalID uuid.UUID) (*model.Withdrawal, error) {
	processedAt := time.Now().UTC()
	return retryOnce(func() (*model.Withdrawal, error) {
		return s.repo.ResolveWithdrawal(ctx, withdrawalID, model.WithdrawalStatusCompleted, processedAt)
	})
}

// RejectWithdrawal cancels a payout and restores the reserved amount.
func (s *AdminService) RejectWithdrawal(ctx context.Context, withdrawalID uuid.UUID) (*model.Withdrawal, error) {
	processedAt := time.Now().UTC()
	return retryOnce(func() (*model.Withdrawal, error) {
		return s.repo.ResolveWithdrawal(ctx, withdrawalID, model.WithdrawalStatusRejected, processedAt)
	})
}

func (s *AdminService) GetDashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	return s.repo.GetDashboardStats(ctx)
}

func (s *AdminService) ListUsers(ctx context.Context, limit, offset int) ([]model.User, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	return s.repo.ListUsers(ctx, limit, offset)
}

func (s *AdminService) ListPendingDeposits(ctx context.Context, limit, offset int) ([]model.Deposit, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListDepositsByStatus(ctx, model.DepositStatusPending, limit, offset)
}

func (s *AdminService) ListWithdrawalsByStatus(ctx context.Context, status model.WithdrawalStatus, limit, offset int) ([]model.Withdrawal, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListWithdrawalsByStatus(ctx, status, limit, offset)
}
