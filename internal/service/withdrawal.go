package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/goldvault/backend/internal/model"
	"github.com/goldvault/backend/internal/repository"
)

// MinWithdrawalAmount is the smallest accepted withdrawal in USD.
const MinWithdrawalAmount = 25.0

var (
	ErrWithdrawalTooSmall   = errors.New("withdrawal below minimum amount")
	ErrMissingWalletAddress = errors.New("wallet address is required")
	ErrInsufficientBalance  = errors.New("insufficient balance")
)

type WithdrawalService struct {
	repo       *repository.Repository
	userSvc    *UserService
	balanceSvc *BalanceService
	notifier   Notifier
}

func NewWithdrawalService(repo *repository.Repository, userSvc *UserService, balanceSvc *BalanceService) *WithdrawalService {
	return &WithdrawalService{
		repo:       repo,
		userSvc:    userSvc,
		balanceSvc: balanceSvc,
	}
}

// SetNotifier sets the outbound notifier (to avoid circular dependency)
func (s *WithdrawalService) SetNotifier(n Notifier) {
	s.notifier = n
}

// Request reserves the amount from the user's balance and files a pending
// withdrawal. The balance is reconciled first so the check runs against an
// up-to-date figure, and the password is re-verified before any money moves.
func (s *WithdrawalService) Request(ctx context.Context, userID uuid.UUID, amount float64, walletAddress, password string) (*model.Withdrawal, error) {
	if amount < MinWithdrawalAmount {
		return nil, ErrWithdrawalTooSmall
	}
	walletAddress = strings.TrimSpace(walletAddress)
	if walletAddress == "" {
		return nil, ErrMissingWalletAddress
	}

	user, err := s.balanceSvc.Reconcile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.userSvc.VerifyPassword(user, password); err != nil {
		return nil, err
	}

	withdrawal := &model.Withdrawal{
		UserID:        user.ID,
		Amount:        amount,
		WalletAddress: walletAddress,
		Status:        model.WithdrawalStatusPending,
	}
	_, err = retryOnce(func() (struct{}, error) {
		return struct{}{}, s.repo.CreateWithdrawal(ctx, withdrawal)
	})
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientBalance) {
			return nil, ErrInsufficientBalance
		}
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.SendWithdrawalRequested(user.Email, amount, walletAddress); err != nil {
			log.Printf("Failed to send withdrawal notification to %s: %v", user.Email, err)
		}
	}

	return withdrawal, nil
}

func (s *WithdrawalService) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Withdrawal, error) {
	return s.repo.ListWithdrawalsByUser(ctx, userID)
}
