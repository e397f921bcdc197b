package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ralovishna/money-manager-api/internal/domain"
)

// ProfileRepository defines persistence access for account profiles.
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) error
	Update(ctx context.Context, profile *domain.Profile) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Profile, error)
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)
	GetByActivationToken(ctx context.Context, token string) (*domain.Profile, error)
	ListActive(ctx context.Context) ([]domain.Profile, error)
}

type profileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository returns a Postgres-backed implementation.
func NewProfileRepository(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepository{pool: pool}
}

const profileColumns = `id, full_name, email, password_hash, profile_image_url, is_active,
               COALESCE(activation_token, ''), created_at, updated_at`

func (r *profileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	const query = `
        INSERT INTO profiles (full_name, email, password_hash, profile_image_url, is_active, activation_token)
        VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		profile.FullName,
		profile.Email,
		profile.PasswordHash,
		profile.ProfileImageURL,
		profile.IsActive,
		profile.ActivationToken,
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)
}

func (r *profileRepository) Update(ctx context.Context, profile *domain.Profile) error {
	const query = `
        UPDATE profiles SET full_name=$1, email=$2, password_hash=$3, profile_image_url=$4,
            is_active=$5, activation_token=NULLIF($6, ''), updated_at=NOW()
        WHERE id=$7
        RETURNING updated_at`

	return r.pool.QueryRow(ctx, query,
		profile.FullName,
		profile.Email,
		profile.PasswordHash,
		profile.ProfileImageURL,
		profile.IsActive,
		profile.ActivationToken,
		profile.ID,
	).Scan(&profile.UpdatedAt)
}

func (r *profileRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM profiles WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *profileRepository) GetByID(ctx context.Context, id int64) (*domain.Profile, error) {
	return r.fetchSingle(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id=$1`, id)
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	return r.fetchSingle(ctx, `SELECT `+profileColumns+` FROM profiles WHERE email=$1`, email)
}

func (r *profileRepository) GetByActivationToken(ctx context.Context, token string) (*domain.Profile, error) {
	return r.fetchSingle(ctx, `SELECT `+profileColumns+` FROM profiles WHERE activation_token=$1`, token)
}

func (r *profileRepository) ListActive(ctx context.Context) ([]domain.Profile, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+profileColumns+` FROM profiles WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *profile)
	}
	return result, rows.Err()
}

func (r *profileRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Profile, error) {
	return scanProfile(r.pool.QueryRow(ctx, query, arg))
}

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var profile domain.Profile
	if err := row.Scan(
		&profile.ID,
		&profile.FullName,
		&profile.Email,
		&profile.PasswordHash,
		&profile.ProfileImageURL,
		&profile.IsActive,
		&profile.ActivationToken,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &profile, nil
}
