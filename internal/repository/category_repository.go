package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ralovishna/money-manager-api/internal/domain"
)

// CategoryRepository manages categories, always scoped to an owning profile.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	Update(ctx context.Context, category *domain.Category) error
	GetByID(ctx context.Context, id, profileID int64) (*domain.Category, error)
	ListByProfile(ctx context.Context, profileID int64) ([]domain.Category, error)
	ListByType(ctx context.Context, profileID int64, kind domain.TransactionKind) ([]domain.Category, error)
	ExistsByName(ctx context.Context, profileID int64, name string) (bool, error)
}

type categoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository instantiates repository.
func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{pool: pool}
}

const categoryColumns = `id, profile_id, name, type, icon, created_at, updated_at`

func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	const query = `
        INSERT INTO categories (profile_id, name, type, icon)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		category.ProfileID,
		category.Name,
		category.Type,
		category.Icon,
	).Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)
}

func (r *categoryRepository) Update(ctx context.Context, category *domain.Category) error {
	const query = `
        UPDATE categories SET name=$1, type=$2, icon=$3, updated_at=NOW()
        WHERE id=$4 AND profile_id=$5
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		category.Name,
		category.Type,
		category.Icon,
		category.ID,
		category.ProfileID,
	).Scan(&category.UpdatedAt)
}

func (r *categoryRepository) GetByID(ctx context.Context, id, profileID int64) (*domain.Category, error) {
	const query = `SELECT ` + categoryColumns + ` FROM categories WHERE id=$1 AND profile_id=$2`
	var category domain.Category
	if err := r.pool.QueryRow(ctx, query, id, profileID).Scan(
		&category.ID,
		&category.ProfileID,
		&category.Name,
		&category.Type,
		&category.Icon,
		&category.CreatedAt,
		&category.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) ListByProfile(ctx context.Context, profileID int64) ([]domain.Category, error) {
	const query = `SELECT ` + categoryColumns + ` FROM categories WHERE profile_id=$1 ORDER BY name`
	rows, err := r.pool.Query(ctx, query, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCategories(rows)
}

func (r *categoryRepository) ListByType(ctx context.Context, profileID int64, kind domain.TransactionKind) ([]domain.Category, error) {
	const query = `SELECT ` + categoryColumns + ` FROM categories WHERE profile_id=$1 AND type=$2 ORDER BY name`
	rows, err := r.pool.Query(ctx, query, profileID, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCategories(rows)
}

func (r *categoryRepository) ExistsByName(ctx context.Context, profileID int64, name string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM categories WHERE profile_id=$1 AND name=$2)`
	var exists bool
	err := r.pool.QueryRow(ctx, query, profileID, name).Scan(&exists)
	return exists, err
}

func scanCategories(rows pgx.Rows) ([]domain.Category, error) {
	var result []domain.Category
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(
			&category.ID,
			&category.ProfileID,
			&category.Name,
			&category.Type,
			&category.Icon,
			&category.CreatedAt,
			&category.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, category)
	}
	return result, rows.Err()
}
