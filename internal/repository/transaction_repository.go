package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ralovishna/money-manager-api/internal/domain"
)

// TransactionRepository persists one ledger (incomes or expenses).
type TransactionRepository interface {
	Kind() domain.TransactionKind
	Create(ctx context.Context, tx *domain.Transaction) error
	GetByID(ctx context.Context, id int64) (*domain.Transaction, error)
	Delete(ctx context.Context, id int64) error
	ListBetween(ctx context.Context, profileID int64, from, to time.Time) ([]domain.Transaction, error)
	ListOnDate(ctx context.Context, profileID int64, date time.Time) ([]domain.Transaction, error)
	ListAll(ctx context.Context, profileID int64) ([]domain.Transaction, error)
	Latest(ctx context.Context, profileID int64, limit int) ([]domain.Transaction, error)
	Total(ctx context.Context, profileID int64) (int64, error)
	Filter(ctx context.Context, profileID int64, filter domain.TransactionFilter) ([]domain.Transaction, error)
}

// sortColumns whitelists client sort fields.
var sortColumns = map[string]string{
	"date":       "t.date",
	"amount":     "t.amount_cents",
	"name":       "t.name",
	"created_at": "t.created_at",
	"createdAt":  "t.created_at",
}

// SortColumn reports the column for a client sort field, or false when the
// field is not sortable.
func SortColumn(field string) (string, bool) {
	col, ok := sortColumns[field]
	return col, ok
}

type transactionRepository struct {
	pool  *pgxpool.Pool
	kind  domain.TransactionKind
	table string
}

// NewExpenseRepository returns the expense ledger.
func NewExpenseRepository(pool *pgxpool.Pool) TransactionRepository {
	return &transactionRepository{pool: pool, kind: domain.KindExpense, table: "expenses"}
}

// NewIncomeRepository returns the income ledger.
func NewIncomeRepository(pool *pgxpool.Pool) TransactionRepository {
	return &transactionRepository{pool: pool, kind: domain.KindIncome, table: "incomes"}
}

func (r *transactionRepository) Kind() domain.TransactionKind {
	return r.kind
}

func (r *transactionRepository) selectFrom() string {
	return `SELECT t.id, t.profile_id, t.category_id, COALESCE(c.name, ''), t.name, t.icon,
               t.amount_cents, t.date, t.created_at, t.updated_at
        FROM ` + r.table + ` t
        LEFT JOIN categories c ON c.id = t.category_id`
}

func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	query := `
        INSERT INTO ` + r.table + ` (profile_id, category_id, name, icon, amount_cents, date)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`
	tx.Kind = r.kind
	return r.pool.QueryRow(ctx, query,
		tx.ProfileID,
		tx.CategoryID,
		tx.Name,
		tx.Icon,
		tx.AmountCents,
		tx.Date,
	).Scan(&tx.ID, &tx.CreatedAt, &tx.UpdatedAt)
}

func (r *transactionRepository) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	row := r.pool.QueryRow(ctx, r.selectFrom()+` WHERE t.id=$1`, id)
	return r.scan(row)
}

func (r *transactionRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM `+r.table+` WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *transactionRepository) ListBetween(ctx context.Context, profileID int64, from, to time.Time) ([]domain.Transaction, error) {
	return r.query(ctx, r.selectFrom()+` WHERE t.profile_id=$1 AND t.date BETWEEN $2 AND $3 ORDER BY t.date DESC, t.created_at DESC`,
		profileID, from, to)
}

func (r *transactionRepository) ListOnDate(ctx context.Context, profileID int64, date time.Time) ([]domain.Transaction, error) {
	return r.query(ctx, r.selectFrom()+` WHERE t.profile_id=$1 AND t.date=$2 ORDER BY t.created_at`, profileID, date)
}

func (r *transactionRepository) ListAll(ctx context.Context, profileID int64) ([]domain.Transaction, error) {
	return r.query(ctx, r.selectFrom()+` WHERE t.profile_id=$1 ORDER BY t.date DESC, t.created_at DESC`, profileID)
}

func (r *transactionRepository) Latest(ctx context.Context, profileID int64, limit int) ([]domain.Transaction, error) {
	return r.query(ctx, r.selectFrom()+` WHERE t.profile_id=$1 ORDER BY t.date DESC, t.created_at DESC LIMIT $2`, profileID, limit)
}

func (r *transactionRepository) Total(ctx context.Context, profileID int64) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(amount_cents), 0) FROM `+r.table+` WHERE profile_id=$1`, profileID).Scan(&total)
	return total, err
}

func (r *transactionRepository) Filter(ctx context.Context, profileID int64, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	var (
		where = []string{"t.profile_id=$1"}
		args  = []any{profileID}
	)
	if filter.From != nil {
		args = append(args, *filter.From)
		where = append(where, fmt.Sprintf("t.date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		where = append(where, fmt.Sprintf("t.date <= $%d", len(args)))
	}
	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		args = append(args, "%"+kw+"%")
		where = append(where, fmt.Sprintf("t.name ILIKE $%d", len(args)))
	}

	column, ok := SortColumn(filter.SortField)
	if !ok {
		column = sortColumns["date"]
	}
	direction := "ASC"
	if filter.Descending {
		direction = "DESC"
	}

	query := fmt.Sprintf("%s WHERE %s ORDER BY %s %s, t.id %s",
		r.selectFrom(), strings.Join(where, " AND "), column, direction, direction)
	return r.query(ctx, query, args...)
}

func (r *transactionRepository) query(ctx context.Context, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Transaction
	for rows.Next() {
		tx, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *tx)
	}
	return result, rows.Err()
}

func (r *transactionRepository) scan(row pgx.Row) (*domain.Transaction, error) {
	tx := domain.Transaction{Kind: r.kind}
	if err := row.Scan(
		&tx.ID,
		&tx.ProfileID,
		&tx.CategoryID,
		&tx.CategoryName,
		&tx.Name,
		&tx.Icon,
		&tx.AmountCents,
		&tx.Date,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &tx, nil
}
