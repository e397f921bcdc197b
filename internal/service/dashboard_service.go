package service

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ralovishna/money-manager-api/internal/domain"
	"github.com/ralovishna/money-manager-api/internal/repository"
)

// Dashboard summarises the caller's ledgers.
type Dashboard struct {
	TotalIncomeCents   int64
	TotalExpenseCents  int64
	LatestIncomes      []domain.Transaction
	LatestExpenses     []domain.Transaction
	RecentTransactions []domain.Transaction
}

// BalanceCents is income minus expense.
func (d Dashboard) BalanceCents() int64 {
	return d.TotalIncomeCents - d.TotalExpenseCents
}

// DashboardService aggregates both ledgers.
type DashboardService struct {
	incomes  repository.TransactionRepository
	expenses repository.TransactionRepository
	resolver ProfileResolver
}

// NewDashboardService constructs service.
func NewDashboardService(incomes, expenses repository.TransactionRepository, resolver ProfileResolver) *DashboardService {
	return &DashboardService{incomes: incomes, expenses: expenses, resolver: resolver}
}

// Get loads totals and recent entries concurrently.
func (s *DashboardService) Get(ctx context.Context) (*Dashboard, error) {
	profile, err := s.resolver.CurrentProfile(ctx)
	if err != nil {
		return nil, err
	}

	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.TotalIncomeCents, err = s.incomes.Total(gctx, profile.ID)
		return err
	})
	g.Go(func() (err error) {
		d.TotalExpenseCents, err = s.expenses.Total(gctx, profile.ID)
		return err
	})
	g.Go(func() (err error) {
		d.LatestIncomes, err = s.incomes.Latest(gctx, profile.ID, LatestLimit)
		return err
	})
	g.Go(func() (err error) {
		d.LatestExpenses, err = s.expenses.Latest(gctx, profile.ID, LatestLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.RecentTransactions = MergeRecent(d.LatestIncomes, d.LatestExpenses)
	return &d, nil
}

// MergeRecent combines entries from both ledgers, newest date first and, for
// the same date, most recently created first.
func MergeRecent(lists ...[]domain.Transaction) []domain.Transaction {
	var merged []domain.Transaction
	for _, list := range lists {
		merged = append(merged, list...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return merged
}
