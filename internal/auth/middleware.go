package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ralovishna/money-manager-api/internal/domain"
	apperrors "github.com/ralovishna/money-manager-api/pkg/util/errorutil"
)

// ProfileLoader resolves a token subject to a stored profile. It returns an
// error wrapping errorutil.ErrIdentityNotFound when no profile matches.
type ProfileLoader interface {
	LoadBySubject(ctx context.Context, email string) (*domain.Profile, error)
}

// OutcomeRecorder receives one observation per request that carried a token.
type OutcomeRecorder interface {
	RecordAuthOutcome(outcome string)
}

// Authenticator is a best-effort pre-authentication middleware. It never
// rejects a request: failures leave the request anonymous and access control
// is left to downstream guards and services.
type Authenticator struct {
	codec     *TokenCodec
	validator *Validator
	profiles  ProfileLoader
	logger    *zap.Logger
	now       func() time.Time
	recorder  OutcomeRecorder
}

// AuthenticatorOption customizes an Authenticator.
type AuthenticatorOption func(*Authenticator)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) AuthenticatorOption {
	return func(a *Authenticator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithOutcomeRecorder reports authentication outcomes, e.g. to metrics.
func WithOutcomeRecorder(recorder OutcomeRecorder) AuthenticatorOption {
	return func(a *Authenticator) {
		a.recorder = recorder
	}
}

// NewAuthenticator constructs middleware.
func NewAuthenticator(codec *TokenCodec, profiles ProfileLoader, logger *zap.Logger, opts ...AuthenticatorOption) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Authenticator{
		codec:     codec,
		validator: NewValidator(codec),
		profiles:  profiles,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handle attempts to authenticate the request and always continues the chain.
func (a *Authenticator) Handle(c *fiber.Ctx) error {
	token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok {
		return c.Next()
	}

	claims, err := a.codec.Parse(token)
	if err != nil {
		a.logger.Warn("invalid bearer token", zap.String("path", c.Path()), zap.Error(err))
		a.record("rejected")
		return c.Next()
	}

	if _, exists := PrincipalFromLocals(c); exists {
		return c.Next()
	}

	profile, err := a.profiles.LoadBySubject(c.UserContext(), claims.Subject)
	if err != nil {
		if errors.Is(err, apperrors.ErrIdentityNotFound) {
			a.logger.Warn("no profile for token subject", zap.String("subject", claims.Subject))
		} else {
			a.logger.Warn("identity lookup failed", zap.String("subject", claims.Subject), zap.Error(err))
		}
		a.record("rejected")
		return c.Next()
	}

	outcome := a.validator.Check(token, profile.Email, a.now())
	if !outcome.Valid() {
		a.logger.Warn("token rejected",
			zap.String("subject", claims.Subject),
			zap.Stringer("reason", outcome.Reason))
		a.record("rejected")
		return c.Next()
	}

	c.Locals(principalKey, &Principal{
		Subject:     profile.Email,
		ProfileID:   profile.ID,
		Authorities: []string{},
		ExpiresAt:   outcome.Claims.ExpiresAt,
	})
	a.logger.Debug("authenticated request", zap.String("subject", profile.Email))
	a.record("authenticated")
	return c.Next()
}

func (a *Authenticator) record(outcome string) {
	if a.recorder != nil {
		a.recorder.RecordAuthOutcome(outcome)
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}
