package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ralovishna/money-manager-api/internal/auth"
	"github.com/ralovishna/money-manager-api/internal/config"
	"github.com/ralovishna/money-manager-api/internal/domain"
	"github.com/ralovishna/money-manager-api/internal/events"
	"github.com/ralovishna/money-manager-api/internal/repository"
	apperrors "github.com/ralovishna/money-manager-api/pkg/util/errorutil"
)

// ProfileResolver yields the profile of the authenticated caller.
type ProfileResolver interface {
	CurrentProfile(ctx context.Context) (*domain.Profile, error)
}

// RegisterInput carries a new account's details.
type RegisterInput struct {
	FullName        string
	Email           string
	Password        string
	ProfileImageURL string
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token   domain.IssuedToken
	Profile domain.PublicProfile
}

// ProfileService coordinates registration, activation and login.
type ProfileService struct {
	profiles   repository.ProfileRepository
	hasher     auth.PasswordHasher
	codec      *auth.TokenCodec
	tokenTTL   time.Duration
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// ProfileDependencies encapsulates requirements for the profile service.
type ProfileDependencies struct {
	Profiles   repository.ProfileRepository
	Codec      *auth.TokenCodec
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Now        func() time.Time
}

// NewProfileService builds the service.
func NewProfileService(cfg config.AuthConfig, deps ProfileDependencies) *ProfileService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Dispatcher == nil {
		deps.Dispatcher = events.NewInMemoryDispatcher()
	}
	return &ProfileService{
		profiles:   deps.Profiles,
		hasher:     auth.NewPasswordHasher(cfg.BcryptCost),
		codec:      deps.Codec,
		tokenTTL:   cfg.AccessTokenTTL(),
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        deps.Now,
	}
}

// NormalizeEmail is the canonical form used as the token subject.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an inactive profile and announces it so the activation
// mail can be sent.
func (s *ProfileService) Register(ctx context.Context, in RegisterInput) (domain.PublicProfile, error) {
	email := NormalizeEmail(in.Email)
	if _, err := s.profiles.GetByEmail(ctx, email); err == nil {
		return domain.PublicProfile{}, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !repository.IsNotFound(err) {
		return domain.PublicProfile{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return domain.PublicProfile{}, err
	}

	profile := &domain.Profile{
		FullName:        strings.TrimSpace(in.FullName),
		Email:           email,
		PasswordHash:    hash,
		ProfileImageURL: strings.TrimSpace(in.ProfileImageURL),
		ActivationToken: uuid.NewString(),
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		if repository.IsUniqueViolation(err) {
			return domain.PublicProfile{}, apperrors.NewConflict("email already registered", map[string]any{"email": email})
		}
		return domain.PublicProfile{}, err
	}

	err = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventProfileRegistered,
		ProfileID: profile.ID,
		Timestamp: s.now(),
		Payload: events.ProfileRegisteredPayload{
			FullName:        profile.FullName,
			Email:           profile.Email,
			ActivationToken: profile.ActivationToken,
		},
	})
	if err != nil {
		// registration stands even when the activation mail could not be sent
		s.logger.Error("profile registered but notification failed",
			zap.Int64("profile_id", profile.ID), zap.Error(err))
	}
	return profile.Public(), nil
}

// Activate marks the profile holding token as active. It reports false when
// no profile holds the token. Tokens are single use.
func (s *ProfileService) Activate(ctx context.Context, token string) (bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return false, nil
	}
	profile, err := s.profiles.GetByActivationToken(ctx, token)
	if err != nil {
		if repository.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	profile.IsActive = true
	profile.ActivationToken = ""
	if err := s.profiles.Update(ctx, profile); err != nil {
		return false, err
	}

	if err := s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventProfileActivated,
		ProfileID: profile.ID,
		Timestamp: s.now(),
		Payload:   events.ProfileActivatedPayload{Email: profile.Email},
	}); err != nil {
		s.logger.Warn("activation event handler failed", zap.Int64("profile_id", profile.ID), zap.Error(err))
	}
	return true, nil
}

// Login verifies credentials and issues an access token.
func (s *ProfileService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = NormalizeEmail(email)
	profile, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewUnauthorized("invalid email or password")
		}
		return nil, err
	}
	if err := s.hasher.Compare(profile.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperrors.NewUnauthorized("invalid email or password")
		}
		return nil, err
	}
	if !profile.IsActive {
		return nil, apperrors.NewForbidden("account is not active, please activate your account first")
	}

	issuedAt := s.now()
	token, err := s.codec.Issue(profile.Email, issuedAt, s.tokenTTL)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &LoginResult{
		Token: domain.IssuedToken{
			Value:     token,
			ExpiresAt: issuedAt.Truncate(time.Second).Add(s.tokenTTL),
		},
		Profile: profile.Public(),
	}, nil
}
