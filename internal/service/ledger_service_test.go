package service

import (
	"bytes"
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ralovishna/money-manager-api/internal/domain"
	"github.com/ralovishna/money-manager-api/internal/repository/repotest"
)

type ledgerFixture struct {
	profiles   *repotest.Profiles
	categories *repotest.Categories
	expenses   *repotest.Transactions
	incomes    *repotest.Transactions
	alice      *domain.Profile
	bob        *domain.Profile
	mail       *outbox
	now        time.Time
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	f := &ledgerFixture{
		profiles:   repotest.NewProfiles(),
		categories: repotest.NewCategories(),
		mail:       &outbox{},
		now:        time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
	}
	f.expenses = repotest.NewTransactions(domain.KindExpense, f.categories)
	f.incomes = repotest.NewTransactions(domain.KindIncome, f.categories)
	f.alice = seedProfile(t, f.profiles, "alice@example.com", true)
	f.bob = seedProfile(t, f.profiles, "bob@example.com", true)
	return f
}

func (f *ledgerFixture) service(ledger *repotest.Transactions, caller *domain.Profile) *TransactionService {
	return NewTransactionService(TransactionDependencies{
		Ledger:     ledger,
		Categories: f.categories,
		Resolver:   &staticResolver{profile: caller},
		Sender:     f.mail,
		Now:        func() time.Time { return f.now },
	})
}

func TestCategoryService(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	alice := NewCategoryService(f.categories, &staticResolver{profile: f.alice})
	bob := NewCategoryService(f.categories, &staticResolver{profile: f.bob})

	food, err := alice.Save(ctx, CategoryInput{Name: " Food ", Icon: "🍔", Type: domain.KindExpense})
	require.NoError(t, err)
	assert.Equal(t, "Food", food.Name)
	assert.Equal(t, f.alice.ID, food.ProfileID)

	_, err = alice.Save(ctx, CategoryInput{Name: "Food", Type: domain.KindExpense})
	assert.Equal(t, http.StatusConflict, statusOf(err))

	_, err = bob.Save(ctx, CategoryInput{Name: "Food", Type: domain.KindExpense})
	assert.NoError(t, err, "names are unique per profile only")

	_, err = alice.Save(ctx, CategoryInput{Name: "Salary", Type: domain.KindIncome})
	require.NoError(t, err)

	all, err := alice.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	incomes, err := alice.ListByType(ctx, domain.KindIncome)
	require.NoError(t, err)
	require.Len(t, incomes, 1)
	assert.Equal(t, "Salary", incomes[0].Name)

	updated, err := alice.Update(ctx, food.ID, CategoryInput{Name: "Groceries", Icon: "🛒", Type: domain.KindExpense})
	require.NoError(t, err)
	assert.Equal(t, "Groceries", updated.Name)

	_, err = bob.Update(ctx, food.ID, CategoryInput{Name: "Stolen", Type: domain.KindExpense})
	assert.Equal(t, http.StatusNotFound, statusOf(err))

	_, err = NewCategoryService(f.categories, &staticResolver{}).List(ctx)
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))
}

func TestTransactionService_Add(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	food := seedCategory(t, f.categories, f.alice.ID, "Food", domain.KindExpense)
	salary := seedCategory(t, f.categories, f.alice.ID, "Salary", domain.KindIncome)
	bobs := seedCategory(t, f.categories, f.bob.ID, "Bob's", domain.KindExpense)
	svc := f.service(f.expenses, f.alice)

	tx, err := svc.Add(ctx, TransactionInput{Name: "Lunch", CategoryID: food.ID, AmountCents: 1250})
	require.NoError(t, err)
	assert.Equal(t, "Food", tx.CategoryName)
	assert.Equal(t, day(2025, 6, 15), tx.Date, "zero date defaults to today")
	assert.Equal(t, domain.KindExpense, tx.Kind)

	_, err = svc.Add(ctx, TransactionInput{Name: "x", CategoryID: bobs.ID, AmountCents: 1})
	assert.Equal(t, http.StatusNotFound, statusOf(err), "another profile's category")

	_, err = svc.Add(ctx, TransactionInput{Name: "x", CategoryID: salary.ID, AmountCents: 1})
	assert.Equal(t, http.StatusBadRequest, statusOf(err), "income category on expense ledger")
}

func TestTransactionService_CurrentMonthAndDelete(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	food := seedCategory(t, f.categories, f.alice.ID, "Food", domain.KindExpense)
	svc := f.service(f.expenses, f.alice)

	for _, d := range []time.Time{day(2025, 5, 31), day(2025, 6, 1), day(2025, 6, 30), day(2025, 7, 1)} {
		_, err := svc.Add(ctx, TransactionInput{Name: d.Format(time.DateOnly), CategoryID: food.ID, AmountCents: 100, Date: d})
		require.NoError(t, err)
	}

	month, err := svc.CurrentMonth(ctx)
	require.NoError(t, err)
	require.Len(t, month, 2)
	assert.Equal(t, "2025-06-30", month[0].Name)
	assert.Equal(t, "2025-06-01", month[1].Name)

	err = f.service(f.expenses, f.bob).Delete(ctx, month[0].ID)
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	require.NoError(t, svc.Delete(ctx, month[0].ID))
	assert.Equal(t, http.StatusNotFound, statusOf(svc.Delete(ctx, month[0].ID)))
}

func TestTransactionService_Filter(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	salary := seedCategory(t, f.categories, f.alice.ID, "Salary", domain.KindIncome)
	svc := f.service(f.incomes, f.alice)

	entries := []TransactionInput{
		{Name: "June salary", AmountCents: 500000, Date: day(2025, 6, 1)},
		{Name: "Freelance", AmountCents: 120000, Date: day(2025, 6, 10)},
		{Name: "May salary", AmountCents: 480000, Date: day(2025, 5, 1)},
	}
	for _, e := range entries {
		e.CategoryID = salary.ID
		_, err := svc.Add(ctx, e)
		require.NoError(t, err)
	}

	from := day(2025, 6, 1)
	got, err := svc.Filter(ctx, domain.TransactionFilter{From: &from, Keyword: "SALARY"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "June salary", got[0].Name)

	got, err = svc.Filter(ctx, domain.TransactionFilter{SortField: "amount", Descending: true})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"June salary", "May salary", "Freelance"}, names(got))

	got, err = svc.Filter(ctx, domain.TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"May salary", "June salary", "Freelance"}, names(got), "defaults to date ascending")

	_, err = svc.Filter(ctx, domain.TransactionFilter{SortField: "password_hash"})
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
}

func TestTransactionService_ExportAndEmail(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	food := seedCategory(t, f.categories, f.alice.ID, "Food", domain.KindExpense)
	svc := f.service(f.expenses, f.alice)

	_, err := svc.Add(ctx, TransactionInput{Name: "Older", CategoryID: food.ID, AmountCents: 1999, Date: day(2025, 6, 1)})
	require.NoError(t, err)
	_, err = svc.Add(ctx, TransactionInput{Name: "Newer", CategoryID: food.ID, AmountCents: 500, Date: day(2025, 6, 2)})
	require.NoError(t, err)

	data, err := svc.Export(ctx)
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, "Expense Details", wb.GetSheetName(0))
	rows, err := wb.GetRows("Expense Details")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Date", "Amount", "Name", "Category"}, rows[0])
	assert.Equal(t, []string{"2025-06-02", "5", "Newer", "Food"}, rows[1])
	assert.Equal(t, []string{"2025-06-01", "19.99", "Older", "Food"}, rows[2])

	require.NoError(t, svc.EmailExport(ctx))
	msgs := f.mail.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "alice@example.com", msgs[0].To)
	require.NotNil(t, msgs[0].Attachment)
	assert.Equal(t, "expense_details.xlsx", msgs[0].Attachment.Filename)
	assert.Equal(t, XLSXContentType, msgs[0].Attachment.ContentType)

	f.mail.err = assert.AnError
	assert.Equal(t, http.StatusBadGateway, statusOf(svc.EmailExport(ctx)))
}

func TestDashboardService(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	food := seedCategory(t, f.categories, f.alice.ID, "Food", domain.KindExpense)
	salary := seedCategory(t, f.categories, f.alice.ID, "Salary", domain.KindIncome)
	expenses := f.service(f.expenses, f.alice)
	incomes := f.service(f.incomes, f.alice)

	_, err := incomes.Add(ctx, TransactionInput{Name: "Salary", CategoryID: salary.ID, AmountCents: 100000, Date: day(2025, 6, 1)})
	require.NoError(t, err)
	_, err = expenses.Add(ctx, TransactionInput{Name: "Rent", CategoryID: food.ID, AmountCents: 40000, Date: day(2025, 6, 1)})
	require.NoError(t, err)
	_, err = expenses.Add(ctx, TransactionInput{Name: "Snack", CategoryID: food.ID, AmountCents: 250, Date: day(2025, 6, 3)})
	require.NoError(t, err)

	svc := NewDashboardService(f.incomes, f.expenses, &staticResolver{profile: f.alice})
	d, err := svc.Get(ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 100000, d.TotalIncomeCents)
	assert.EqualValues(t, 40250, d.TotalExpenseCents)
	assert.EqualValues(t, 59750, d.BalanceCents())
	assert.Len(t, d.LatestIncomes, 1)
	assert.Len(t, d.LatestExpenses, 2)
	assert.Equal(t, "Snack", d.RecentTransactions[0].Name)
	assert.Len(t, d.RecentTransactions, 3)

	_, err = NewDashboardService(f.incomes, f.expenses, &staticResolver{}).Get(ctx)
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))
}

func TestMergeRecent_Ordering(t *testing.T) {
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	incomes := []domain.Transaction{
		{Name: "i-jun1-early", Date: day(2025, 6, 1), CreatedAt: base},
		{Name: "i-may30", Date: day(2025, 5, 30), CreatedAt: base.Add(5 * time.Hour)},
	}
	expenses := []domain.Transaction{
		{Name: "e-jun1-late", Date: day(2025, 6, 1), CreatedAt: base.Add(time.Hour)},
		{Name: "e-jun2", Date: day(2025, 6, 2), CreatedAt: base.Add(-time.Hour)},
	}

	merged := MergeRecent(incomes, expenses)
	assert.Equal(t, []string{"e-jun2", "e-jun1-late", "i-jun1-early", "i-may30"}, names(merged))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0.00", FormatAmount(0))
	assert.Equal(t, "12.05", FormatAmount(1205))
	assert.Equal(t, "-0.50", FormatAmount(-50))
}

func names(txs []domain.Transaction) []string {
	out := make([]string, len(txs))
	for i, tx := range txs {
		out[i] = tx.Name
	}
	return out
}
