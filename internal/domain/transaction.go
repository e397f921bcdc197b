package domain

import "time"

// TransactionKind separates the two ledgers.
type TransactionKind string

const (
	KindIncome  TransactionKind = "income"
	KindExpense TransactionKind = "expense"
)

// Valid reports whether k names a known ledger.
func (k TransactionKind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// Transaction is a single income or expense entry. Amounts are stored in cents.
type Transaction struct {
	ID           int64
	Kind         TransactionKind
	ProfileID    int64
	CategoryID   *int64
	CategoryName string
	Name         string
	Icon         string
	AmountCents  int64
	Date         time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TransactionFilter narrows a ledger query. Nil dates leave that side of the
// range open.
type TransactionFilter struct {
	From       *time.Time
	To         *time.Time
	Keyword    string
	SortField  string
	Descending bool
}

// DateOf returns the calendar date of t as midnight UTC, the form stored in
// DATE columns.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthBounds returns the first and last calendar dates of t's month.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	y, m, _ := t.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}
