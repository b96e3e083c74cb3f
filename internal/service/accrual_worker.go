package service

import (
	"context"
	"log"
	"time"

	"github.com/goldvault/backend/internal/repository"
)

const AccrualSweepInterval = 1 * time.Hour

// AccrualWorker periodically reconciles every user's balance so interest is
// not only applied lazily when someone logs in. Reconciliation is
// idempotent, so the sweep and request-driven reconciles can overlap freely.
type AccrualWorker struct {
	repo *repository.Repository
}

func NewAccrualWorker(repo *repository.Repository) *AccrualWorker {
	return &AccrualWorker{repo: repo}
}

func (w *AccrualWorker) Start(ctx context.Context) {
	log.Printf("[Accrual Worker] Started, sweeping every %v", AccrualSweepInterval)

	ticker := time.NewTicker(AccrualSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[Accrual Worker] Stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *AccrualWorker) sweep(ctx context.Context) {
	ids, err := w.repo.ListUserIDs(ctx)
	if err != nil {
		log.Printf("[Accrual Worker] Failed to list users: %v", err)
		return
	}

	now := time.Now().UTC()
	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		if _, err := w.repo.ReconcileBalance(ctx, id, now); err != nil {
			log.Printf("[Accrual Worker] Failed to reconcile user %s: %v", id, err)
		}
	}
}
