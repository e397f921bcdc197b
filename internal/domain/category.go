package domain

import "time"

// Category groups incomes or expenses for one profile.
type Category struct {
	ID        int64
	ProfileID int64
	Name      string
	Type      TransactionKind
	Icon      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
