// Package identity maps authenticated principals to stored profiles.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ralovishna/money-manager-api/internal/auth"
	"github.com/ralovishna/money-manager-api/internal/domain"
	"github.com/ralovishna/money-manager-api/internal/repository"
	apperrors "github.com/ralovishna/money-manager-api/pkg/util/errorutil"
)

// Resolver answers "who is the caller" for business operations.
type Resolver struct {
	profiles repository.ProfileRepository
}

// NewResolver constructs a Resolver.
func NewResolver(profiles repository.ProfileRepository) *Resolver {
	return &Resolver{profiles: profiles}
}

// LoadBySubject looks a profile up by the email carried in a token subject.
func (r *Resolver) LoadBySubject(ctx context.Context, email string) (*domain.Profile, error) {
	profile, err := r.profiles.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("profile %q: %w", email, apperrors.ErrIdentityNotFound)
		}
		return nil, err
	}
	return profile, nil
}

// CurrentProfile returns the profile of the authenticated caller in ctx.
func (r *Resolver) CurrentProfile(ctx context.Context) (*domain.Profile, error) {
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return nil, apperrors.ErrUnauthenticated
	}
	return r.LoadBySubject(ctx, principal.Subject)
}

// PublicProfile returns the public view of the caller when email is nil,
// otherwise of the profile registered under email.
func (r *Resolver) PublicProfile(ctx context.Context, email *string) (domain.PublicProfile, error) {
	var (
		profile *domain.Profile
		err     error
	)
	if email == nil {
		profile, err = r.CurrentProfile(ctx)
	} else {
		profile, err = r.LoadBySubject(ctx, *email)
	}
	if err != nil {
		return domain.PublicProfile{}, err
	}
	return profile.Public(), nil
}
