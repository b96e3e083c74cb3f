package repository

import (
	"context"

	"github.com/goldvault/backend/internal/model"
)

// GetDashboardStats aggregates the platform totals for the admin dashboard.
func (r *Repository) GetDashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	stats := &model.DashboardStats{}

	if err := r.db.GetContext(ctx, &stats.TotalUsers,
		"SELECT COUNT(*) FROM users"); err != nil {
		return nil, err
	}
	if err := r.db.GetContext(ctx, &stats.PendingDeposits,
		"SELECT COUNT(*) FROM deposits WHERE status = 'pending'"); err != nil {
		return nil, err
	}
	if err := r.db.GetContext(ctx, &stats.PendingWithdrawals,
		"SELECT COUNT(*) FROM withdrawals WHERE status IN ('pending', 'processing')"); err != nil {
		return nil, err
	}
	if err := r.db.GetContext(ctx, &stats.TotalDeposited,
		"SELECT COALESCE(SUM(total_deposited), 0) FROM users"); err != nil {
		return nil, err
	}
	if err := r.db.GetContext(ctx, &stats.TotalWithdrawn,
		"SELECT COALESCE(SUM(total_withdrawn), 0) FROM users"); err != nil {
		return nil, err
	}
	if err := r.db.GetContext(ctx, &stats.TotalBalance,
		"SELECT COALESCE(SUM(balance), 0) FROM users"); err != nil {
		return nil, err
	}

	return stats, nil
}
