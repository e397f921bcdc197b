package service

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ralovishna/money-manager-api/internal/auth"
	"github.com/ralovishna/money-manager-api/internal/config"
	"github.com/ralovishna/money-manager-api/internal/events"
	"github.com/ralovishna/money-manager-api/internal/repository/repotest"
)

type profileFixture struct {
	svc      *ProfileService
	profiles *repotest.Profiles
	codec    *auth.TokenCodec
	mail     *outbox
	now      time.Time
}

func newProfileFixture(t *testing.T) *profileFixture {
	t.Helper()
	codec, err := auth.NewTokenCodec("profile-service-secret-0123456789abcd")
	require.NoError(t, err)

	f := &profileFixture{
		profiles: repotest.NewProfiles(),
		codec:    codec,
		mail:     &outbox{},
		now:      time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
	}
	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationService(config.NotificationConfig{}, "https://api.example.com/", NotificationDependencies{
		Dispatcher: dispatcher,
		Sender:     f.mail,
		Profiles:   f.profiles,
	}).RegisterHandlers()

	f.svc = NewProfileService(config.AuthConfig{AccessTokenTTLMinutes: 60, BcryptCost: 4}, ProfileDependencies{
		Profiles:   f.profiles,
		Codec:      codec,
		Dispatcher: dispatcher,
		Now:        func() time.Time { return f.now },
	})
	return f
}

func (f *profileFixture) register(t *testing.T, email string) string {
	t.Helper()
	_, err := f.svc.Register(context.Background(), RegisterInput{FullName: "Alice", Email: email, Password: "s3cret-pass"})
	require.NoError(t, err)
	stored, err := f.profiles.GetByEmail(context.Background(), NormalizeEmail(email))
	require.NoError(t, err)
	return stored.ActivationToken
}

func TestProfileService_RegisterSendsActivationMail(t *testing.T) {
	f := newProfileFixture(t)

	public, err := f.svc.Register(context.Background(), RegisterInput{
		FullName: "Alice",
		Email:    "  Alice@Example.com ",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", public.Email)

	stored, err := f.profiles.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.NotEmpty(t, stored.ActivationToken)
	assert.NotEqual(t, "s3cret-pass", stored.PasswordHash)

	msgs := f.mail.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "alice@example.com", msgs[0].To)
	assert.Contains(t, msgs[0].HTMLBody, "https://api.example.com/api/v1.0/activate?activationToken="+stored.ActivationToken)
}

func TestProfileService_RegisterDuplicateEmail(t *testing.T) {
	f := newProfileFixture(t)
	f.register(t, "alice@example.com")

	_, err := f.svc.Register(context.Background(), RegisterInput{FullName: "Other", Email: "ALICE@example.com", Password: "x"})
	assert.Equal(t, http.StatusConflict, statusOf(err))
}

func TestProfileService_RegisterSurvivesMailFailure(t *testing.T) {
	f := newProfileFixture(t)
	f.mail.err = assert.AnError

	_, err := f.svc.Register(context.Background(), RegisterInput{FullName: "Alice", Email: "alice@example.com", Password: "pw"})
	require.NoError(t, err)
	_, err = f.profiles.GetByEmail(context.Background(), "alice@example.com")
	assert.NoError(t, err)
}

func TestProfileService_Activate(t *testing.T) {
	f := newProfileFixture(t)
	token := f.register(t, "alice@example.com")

	ok, err := f.svc.Activate(context.Background(), "unknown-token")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.svc.Activate(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, ok)

	stored, err := f.profiles.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.True(t, stored.IsActive)

	ok, err = f.svc.Activate(context.Background(), token)
	require.NoError(t, err)
	assert.False(t, ok, "activation tokens are single use")

	ok, err = f.svc.Activate(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProfileService_Login(t *testing.T) {
	f := newProfileFixture(t)
	token := f.register(t, "alice@example.com")

	_, err := f.svc.Login(context.Background(), "alice@example.com", "s3cret-pass")
	assert.Equal(t, http.StatusForbidden, statusOf(err), "inactive account")

	_, err = f.svc.Activate(context.Background(), token)
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		status   int
	}{
		{"unknown email", "bob@example.com", "s3cret-pass", http.StatusUnauthorized},
		{"wrong password", "alice@example.com", "nope", http.StatusUnauthorized},
		{"success", "Alice@Example.com", "s3cret-pass", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Login(context.Background(), tt.email, tt.password)
			assert.Equal(t, tt.status, statusOf(err))
		})
	}
}

func TestProfileService_LoginIssuesVerifiableToken(t *testing.T) {
	f := newProfileFixture(t)
	token := f.register(t, "alice@example.com")
	_, err := f.svc.Activate(context.Background(), token)
	require.NoError(t, err)

	result, err := f.svc.Login(context.Background(), "alice@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", result.Profile.Email)
	assert.True(t, result.Token.ExpiresAt.Equal(f.now.Add(time.Hour)))
	assert.Equal(t, 3, len(strings.Split(result.Token.Value, ".")))

	v := auth.NewValidator(f.codec)
	assert.True(t, v.Validate(result.Token.Value, "alice@example.com", f.now.Add(59*time.Minute)))
	assert.False(t, v.Validate(result.Token.Value, "alice@example.com", f.now.Add(time.Hour)))
}
