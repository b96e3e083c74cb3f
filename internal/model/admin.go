package model

// DashboardStats is the aggregate snapshot shown on the admin dashboard.
type DashboardStats struct {
	TotalUsers         int     `json:"total_users"`
	PendingDeposits    int     `json:"pending_deposits"`
	PendingWithdrawals int     `json:"pending_withdrawals"`
	TotalDeposited     float64 `json:"total_deposited"`
	TotalWithdrawn     float64 `json:"total_withdrawn"`
	TotalBalance       float64 `json:"total_balance"`
}
