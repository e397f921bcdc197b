package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ralovishna/money-manager-api/internal/api/http/handlers"
	"github.com/ralovishna/money-manager-api/internal/auth"
	"github.com/ralovishna/money-manager-api/internal/config"
	"github.com/ralovishna/money-manager-api/internal/domain"
	"github.com/ralovishna/money-manager-api/internal/events"
	"github.com/ralovishna/money-manager-api/internal/identity"
	"github.com/ralovishna/money-manager-api/internal/mailer"
	"github.com/ralovishna/money-manager-api/internal/observability"
	"github.com/ralovishna/money-manager-api/internal/persistence"
	"github.com/ralovishna/money-manager-api/internal/repository/repotest"
	"github.com/ralovishna/money-manager-api/internal/service"
)

type captureSender struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (s *captureSender) Send(_ context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

func (s *captureSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type stubLimiter struct {
	deny bool
	keys []string
}

func (l *stubLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) persistence.RateDecision {
	l.keys = append(l.keys, key)
	if l.deny {
		return persistence.RateDecision{Allowed: false, Count: 11, RetryAfter: 42 * time.Second}
	}
	return persistence.RateDecision{Allowed: true, Count: 1}
}

type apiFixture struct {
	app      *fiber.App
	profiles *repotest.Profiles
	mail     *captureSender
	limiter  *stubLimiter
	metrics  *observability.Metrics
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	codec, err := auth.NewTokenCodec("router-test-secret-0123456789abcdef")
	require.NoError(t, err)

	f := &apiFixture{
		profiles: repotest.NewProfiles(),
		mail:     &captureSender{},
		limiter:  &stubLimiter{},
		metrics:  observability.NewMetrics(),
	}
	categories := repotest.NewCategories()
	expenses := repotest.NewTransactions(domain.KindExpense, categories)
	incomes := repotest.NewTransactions(domain.KindIncome, categories)
	resolver := identity.NewResolver(f.profiles)

	dispatcher := events.NewInMemoryDispatcher()
	service.NewNotificationService(config.NotificationConfig{}, "http://localhost:8080", service.NotificationDependencies{
		Dispatcher: dispatcher,
		Sender:     f.mail,
		Profiles:   f.profiles,
		Expenses:   expenses,
	}).RegisterHandlers()

	profileSvc := service.NewProfileService(config.AuthConfig{AccessTokenTTLMinutes: 60, BcryptCost: 4}, service.ProfileDependencies{
		Profiles:   f.profiles,
		Codec:      codec,
		Dispatcher: dispatcher,
	})
	ledger := func(store *repotest.Transactions) *service.TransactionService {
		return service.NewTransactionService(service.TransactionDependencies{
			Ledger:     store,
			Categories: categories,
			Resolver:   resolver,
			Sender:     f.mail,
		})
	}
	expenseSvc, incomeSvc := ledger(expenses), ledger(incomes)

	f.app = NewApp("money-manager-api", zap.NewNop(), f.metrics, 5*time.Second)
	RegisterRoutes(f.app, RouteConfig{
		Health:        handlers.NewHealthHandler("money-manager-api", "test", nil, nil),
		Profiles:      handlers.NewProfileHandler(profileSvc, resolver, f.limiter, f.metrics, 10),
		Categories:    handlers.NewCategoryHandler(service.NewCategoryService(categories, resolver)),
		Expenses:      handlers.NewTransactionHandler(expenseSvc),
		Incomes:       handlers.NewTransactionHandler(incomeSvc),
		Dashboard:     handlers.NewDashboardHandler(service.NewDashboardService(incomes, expenses, resolver), expenseSvc, incomeSvc),
		Authenticator: auth.NewAuthenticator(codec, resolver, zap.NewNop(), auth.WithOutcomeRecorder(f.metrics)),
		Metrics:       f.metrics,
	})
	return f
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

type errorBody struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

// signIn registers, activates and logs in a profile, returning its token.
func (f *apiFixture) signIn(t *testing.T, email string) string {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/api/v1.0/register", "", map[string]string{
		"fullName": "Test User",
		"email":    email,
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	stored, err := f.profiles.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	resp = f.do(t, http.MethodGet, "/api/v1.0/activate?activationToken="+stored.ActivationToken, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/v1.0/login", "", map[string]string{"email": email, "password": "s3cret-pass"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[map[string]any](t, resp)
	token, _ := out["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestRegisterActivateLogin(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodPost, "/api/v1.0/register", "", map[string]string{
		"fullName": "Alice",
		"email":    "Alice@Example.com",
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[map[string]any](t, resp)
	assert.Equal(t, "alice@example.com", created["email"])
	assert.NotContains(t, created, "password")
	assert.Equal(t, 1, f.mail.count())

	resp = f.do(t, http.MethodPost, "/api/v1.0/login", "", map[string]string{"email": "alice@example.com", "password": "s3cret-pass"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/v1.0/activate?activationToken=nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	token := f.signIn(t, "bob@example.com")

	resp = f.do(t, http.MethodGet, "/api/v1.0/profile", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "bob@example.com", decode[map[string]any](t, resp)["email"])

	resp = f.do(t, http.MethodGet, "/api/v1.0/profile?email=alice@example.com", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Alice", decode[map[string]any](t, resp)["fullName"])
}

func TestRegisterValidation(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodPost, "/api/v1.0/register", "", map[string]string{"fullName": "A", "email": "not-an-email", "password": "s3cret-pass"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[errorBody](t, resp)
	assert.Contains(t, body.Error.Details, "email")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := newAPIFixture(t)

	for _, path := range []string{"/api/v1.0/profile", "/api/v1.0/dashboard", "/api/v1.0/expenses", "/api/v1.0/categories"} {
		resp := f.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		assert.Equal(t, "UNAUTHENTICATED", decode[errorBody](t, resp).Error.Code, path)
	}

	resp := f.do(t, http.MethodGet, "/api/v1.0/dashboard", "garbage.token.value", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginRateLimited(t *testing.T) {
	f := newAPIFixture(t)
	f.limiter.deny = true

	resp := f.do(t, http.MethodPost, "/api/v1.0/login", "", map[string]string{"email": "Alice@Example.com", "password": "x"})
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "42", resp.Header.Get(fiber.HeaderRetryAfter))
	assert.Equal(t, []string{"login:alice@example.com"}, f.limiter.keys)
}

func TestLedgerFlow(t *testing.T) {
	f := newAPIFixture(t)
	token := f.signIn(t, "carol@example.com")

	resp := f.do(t, http.MethodGet, "/api/v1.0/categories", token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/v1.0/categories", token, map[string]string{"name": "Food", "icon": "🍔", "type": "expense"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	category := decode[map[string]any](t, resp)
	categoryID := category["id"]

	resp = f.do(t, http.MethodPost, "/api/v1.0/categories", token, map[string]string{"name": "Food", "type": "expense"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/v1.0/categories/income", token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = f.do(t, http.MethodGet, "/api/v1.0/categories/bogus", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/v1.0/expenses", token, map[string]any{"name": "Lunch", "categoryId": categoryID, "amount": 12.5})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	expense := decode[map[string]any](t, resp)
	assert.Equal(t, 12.5, expense["amount"])
	assert.Equal(t, "Food", expense["categoryName"])

	resp = f.do(t, http.MethodPost, "/api/v1.0/incomes", token, map[string]any{"name": "Salary", "categoryId": categoryID, "amount": 100})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "expense category on the income ledger")

	resp = f.do(t, http.MethodGet, "/api/v1.0/expenses", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]map[string]any](t, resp), 1)

	resp = f.do(t, http.MethodGet, "/api/v1.0/dashboard", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	dash := decode[map[string]any](t, resp)
	assert.Equal(t, 12.5, dash["totalExpense"])
	assert.Equal(t, -12.5, dash["totalBalance"])
	recent, _ := dash["recentTransactions"].([]any)
	require.Len(t, recent, 1)
	assert.Equal(t, "expense", recent[0].(map[string]any)["type"])

	resp = f.do(t, http.MethodPost, "/api/v1.0/filter", token, map[string]string{"type": "expense", "keyword": "lun", "sortOrder": "DESC"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]map[string]any](t, resp), 1)

	resp = f.do(t, http.MethodPost, "/api/v1.0/filter", token, map[string]string{"type": "transfer"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/v1.0/expenses/excel/download/expense", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "attachment; filename=expense_details.xlsx", resp.Header.Get(fiber.HeaderContentDisposition))
	assert.Equal(t, service.XLSXContentType, resp.Header.Get(fiber.HeaderContentType))

	sentBefore := f.mail.count()
	resp = f.do(t, http.MethodGet, "/api/v1.0/expenses/email/expense-excel", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Expense details emailed successfully", decode[map[string]any](t, resp)["message"])
	assert.Equal(t, sentBefore+1, f.mail.count())

	other := f.signIn(t, "dave@example.com")
	id := int64(expense["id"].(float64))
	path := "/api/v1.0/expenses/" + strconv.FormatInt(id, 10)
	resp = f.do(t, http.MethodDelete, path, other, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = f.do(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = f.do(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	f.do(t, http.MethodGet, "/api/v1.0/dashboard", "not-a-jwt", nil)

	resp = f.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(raw)
	assert.True(t, strings.Contains(text, `money_manager_auth_bearer_outcomes_total{outcome="rejected"} 1`), text)
	assert.Contains(t, text, "money_manager_api_http_requests_total")
}

