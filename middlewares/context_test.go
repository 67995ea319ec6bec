package middlewares

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLogger(t *testing.T) {
	var logs bytes.Buffer
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(RequestLogger(zerolog.New(&logs)))
	app.Get("/findCustomerById/:id", func(c *fiber.Ctx) error {
		GetLogger(c).Info().Msg("finding customer")
		return c.Status(fiber.StatusNotFound).SendString(GetRequestID(c))
	})

	t.Run("propagates incoming id", func(t *testing.T) {
		logs.Reset()
		req := httptest.NewRequest(http.MethodGet, "/findCustomerById/9", nil)
		req.Header.Set(RequestIDHeader, "req-123")

		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, "req-123", resp.Header.Get(RequestIDHeader))

		lines := strings.Split(strings.TrimSpace(logs.String()), "\n")
		require.Len(t, lines, 2)

		var access map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(lines[1]), &access))
		assert.Equal(t, "API", access["message"])
		assert.Equal(t, "warn", access["level"])
		assert.Equal(t, "req-123", access["request_id"])
		assert.Equal(t, float64(http.StatusNotFound), access["status"])
		assert.Equal(t, "/findCustomerById/9", access["path"])
	})

	t.Run("generates id", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/findCustomerById/9", nil), -1)
		require.NoError(t, err)
		assert.Len(t, resp.Header.Get(RequestIDHeader), 36)
	})
}

func TestGetLogger_OutsideRequestLogger(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		GetLogger(c).Info().Msg("dropped")
		return c.SendString(GetRequestID(c))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
