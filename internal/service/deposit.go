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

// MinDepositAmount is the smallest accepted deposit in USD.
const MinDepositAmount = 50.0

var (
	ErrDepositTooSmall = errors.New("deposit below minimum amount")
	ErrMissingTxHash   = errors.New("transaction hash is required")
)

type DepositService struct {
	repo     *repository.Repository
	notifier Notifier
}

func NewDepositService(repo *repository.Repository) *DepositService {
	return &DepositService{repo: repo}
}

// SetNotifier sets the outbound notifier (to avoid circular dependency)
func (s *DepositService) SetNotifier(n Notifier) {
	s.notifier = n
}

// Submit records a pending deposit. The principal starts earning and paying
// commission only once an operator approves it.
func (s *DepositService) Submit(ctx context.Context, user *model.User, amount float64, txHash string) (*model.Deposit, error) {
	if amount < MinDepositAmount {
		return nil, ErrDepositTooSmall
	}
	txHash = strings.TrimSpace(txHash)
	if txHash == "" {
		return nil, ErrMissingTxHash
	}

	deposit := &model.Deposit{
		UserID: user.ID,
		Amount: amount,
		Status: model.DepositStatusPending,
		TxHash: txHash,
	}
	if err := s.repo.CreateDeposit(ctx, deposit); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.SendDepositReceived(user.Email, amount); err != nil {
			log.Printf("Failed to send deposit notification to %s: %v", user.Email, err)
		}
	}

	return deposit, nil
}

func (s *DepositService) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Deposit, error) {
	return s.repo.ListDepositsByUser(ctx, userID)
}
