package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ralovishna/money-manager-api/internal/observability"
	apperrors "github.com/ralovishna/money-manager-api/pkg/util/errorutil"
)

func TestNewApp_RendersErrors(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	app := NewApp("test", zap.New(core), observability.NewMetrics(), time.Second)
	app.Get("/boom", func(*fiber.Ctx) error { panic("kaboom") })
	app.Get("/conflict", func(*fiber.Ctx) error {
		return apperrors.NewConflict("already there", map[string]any{"name": "Food"})
	})
	app.Get("/deadline", func(c *fiber.Ctx) error {
		_, ok := c.UserContext().Deadline()
		return c.JSON(fiber.Map{"deadline": ok})
	})

	tests := []struct {
		path   string
		status int
		code   string
	}{
		{"/boom", http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"/conflict", http.StatusConflict, "CONFLICT"},
		{"/missing", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil), -1)
			require.NoError(t, err)
			require.Equal(t, tt.status, resp.StatusCode)
			assert.NotEmpty(t, resp.Header.Get(observability.RequestIDHeader))

			var body errorBody
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			if tt.code != "" {
				assert.Equal(t, tt.code, body.Error.Code)
			}
			assert.NotEmpty(t, body.Error.Message)
		})
	}
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/deadline", nil), -1)
	require.NoError(t, err)
	var out map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out["deadline"])
}
