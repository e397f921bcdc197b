package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ralovishna/money-manager-api/internal/config"
	apperrors "github.com/ralovishna/money-manager-api/pkg/util/errorutil"
)

func TestNewLogger_FallsBackToInfo(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "chatty"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest("/api/v1.0/login", http.MethodPost, 200, 15*time.Millisecond)
	m.RecordRequest("/api/v1.0/login", http.MethodPost, 200, 20*time.Millisecond)
	m.RecordError("/api/v1.0/login", http.MethodPost, "UNAUTHORIZED")
	m.RecordAuthOutcome("authenticated")
	m.RecordAuthOutcome("rejected")
	m.RecordAuthOutcome("rejected")
	m.RecordMailSend("smtp", "sent")
	m.RecordRateLimitHit("/api/v1.0/login")
	m.RecordJobRun("daily_reminder", "ok")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestTotal.WithLabelValues(http.MethodPost, "/api/v1.0/login", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorTotal.WithLabelValues(http.MethodPost, "/api/v1.0/login", "UNAUTHORIZED")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.authOutcomes.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mailSends.WithLabelValues("smtp", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimitHits.WithLabelValues("/api/v1.0/login")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobRuns.WithLabelValues("daily_reminder", "ok")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", http.MethodGet, 200, time.Millisecond)
		m.RecordError("/", http.MethodGet, "X")
		m.RecordAuthOutcome("authenticated")
		m.RecordMailSend("log", "sent")
		m.RecordRateLimitHit("/")
		m.RecordJobRun("job", "ok")
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.RecordAuthOutcome("authenticated")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `money_manager_auth_bearer_outcomes_total{outcome="authenticated"} 1`)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	m := NewMetrics()

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			d := apperrors.ToDomainError(err)
			return c.Status(d.HTTPStatus).SendString(d.Code)
		},
	})
	app.Use(RequestLogger(zap.New(core), m))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString(RequestID(c)) })
	app.Get("/missing", func(c *fiber.Ctx) error { return apperrors.NewNotFound("category", nil) })

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "req-123", string(body))
	assert.Equal(t, "req-123", resp.Header.Get(RequestIDHeader))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.EqualValues(t, http.StatusNotFound, entries[1].ContextMap()["status"])

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestTotal.WithLabelValues(http.MethodGet, "/missing", "404")))
}
