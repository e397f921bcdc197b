package dto

import (
	"github.com/ralovishna/money-manager-api/internal/service"
)

// RecentTransaction is an entry from either ledger tagged with its kind.
type RecentTransaction struct {
	TransactionResponse
	ProfileID int64  `json:"profileId"`
	Type      string `json:"type"`
}

// DashboardResponse is the body of GET /dashboard.
type DashboardResponse struct {
	TotalBalance       float64               `json:"totalBalance"`
	TotalIncome        float64               `json:"totalIncome"`
	TotalExpense       float64               `json:"totalExpense"`
	Recent5Incomes     []TransactionResponse `json:"recent5Incomes"`
	Recent5Expenses    []TransactionResponse `json:"recent5Expenses"`
	RecentTransactions []RecentTransaction   `json:"recentTransactions"`
}

// NewDashboardResponse maps the aggregated dashboard.
func NewDashboardResponse(d *service.Dashboard) DashboardResponse {
	recent := make([]RecentTransaction, 0, len(d.RecentTransactions))
	for _, tx := range d.RecentTransactions {
		recent = append(recent, RecentTransaction{
			TransactionResponse: NewTransactionResponse(tx),
			ProfileID:           tx.ProfileID,
			Type:                string(tx.Kind),
		})
	}
	return DashboardResponse{
		TotalBalance:       FromCents(d.BalanceCents()),
		TotalIncome:        FromCents(d.TotalIncomeCents),
		TotalExpense:       FromCents(d.TotalExpenseCents),
		Recent5Incomes:     NewTransactionResponses(d.LatestIncomes),
		Recent5Expenses:    NewTransactionResponses(d.LatestExpenses),
		RecentTransactions: recent,
	}
}
