package service

import (
	"errors"

	"github.com/goldvault/backend/internal/repository"
)

// Notifier delivers outbound user notifications (implemented by mailer.Mailer).
// Delivery is best-effort; failures never fail the triggering operation.
type Notifier interface {
	SendDepositReceived(email string, amount float64) error
	SendWithdrawalRequested(email string, amount float64, walletAddress string) error
}

// retryOnce re-runs a store operation one time after a conflict abort, so
// transient lock collisions between concurrent requests are absorbed with
// fresh reads instead of being surfaced.
func retryOnce[T any](op func() (T, error)) (T, error) {
	v, err := op()
	if errors.Is(err, repository.ErrConflict) {
		return op()
	}
	return v, err
}
