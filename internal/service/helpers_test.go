package service

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ralovishna/money-manager-api/internal/domain"
	"github.com/ralovishna/money-manager-api/internal/mailer"
	"github.com/ralovishna/money-manager-api/internal/repository/repotest"
	apperrors "github.com/ralovishna/money-manager-api/pkg/util/errorutil"
)

// staticResolver always answers with the same caller.
type staticResolver struct {
	profile *domain.Profile
}

func (r *staticResolver) CurrentProfile(context.Context) (*domain.Profile, error) {
	if r.profile == nil {
		return nil, apperrors.ErrUnauthenticated
	}
	p := *r.profile
	return &p, nil
}

type outbox struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (o *outbox) Send(_ context.Context, msg mailer.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) messages() []mailer.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]mailer.Message(nil), o.sent...)
}

func statusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return apperrors.ToDomainError(err).HTTPStatus
}

func seedProfile(t *testing.T, store *repotest.Profiles, email string, active bool) *domain.Profile {
	t.Helper()
	p := &domain.Profile{FullName: "Test " + email, Email: email, PasswordHash: "x", IsActive: active}
	require.NoError(t, store.Create(context.Background(), p))
	return p
}

func seedCategory(t *testing.T, store *repotest.Categories, profileID int64, name string, kind domain.TransactionKind) *domain.Category {
	t.Helper()
	c := &domain.Category{ProfileID: profileID, Name: name, Type: kind}
	require.NoError(t, store.Create(context.Background(), c))
	return c
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
