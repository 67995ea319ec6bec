package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"veterinary-backend/config"
	"veterinary-backend/controllers"
	"veterinary-backend/database"
	"veterinary-backend/middlewares"
	"veterinary-backend/repositories"
	"veterinary-backend/services"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

func newApp(db *gorm.DB, auth config.AuthConfig) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middlewares.ErrorHandler})
	customers := controllers.NewCustomerController(services.NewCustomerService(repositories.NewGormCustomerRepo(db)))
	health := controllers.NewHealthController(nil, "test")

	Register(app, "/api", customers, health, middlewares.Authorize(auth),
		middlewares.Idempotency(db), middlewares.Transaction(db))
	return app
}

func send(t *testing.T, app *fiber.App, method, target, body string, headers ...string) (int, string) {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}

func TestRegister_NonNumericIdNeverReachesStore(t *testing.T) {
	db := newTestDB(t)
	app := newApp(db, config.AuthConfig{Level: config.AuthAnonymous})

	// any store access would now fail with 500
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	cases := []struct {
		method string
		target string
		body   string
	}{
		{http.MethodGet, "/api/findCustomerById/abc", ""},
		{http.MethodPut, "/api/updateCustomer/abc", `{"name":"B"}`},
		{http.MethodDelete, "/api/deleteCustomer/abc", ""},
	}
	for _, tc := range cases {
		t.Run(tc.method, func(t *testing.T) {
			status, body := send(t, app, tc.method, tc.target, tc.body, middlewares.IdempotencyKeyHeader, "k-"+tc.method)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, middlewares.InvalidIDMessage, body)
		})
	}
}

func TestRegister_UnknownPathIsNotFoundBehindAuth(t *testing.T) {
	app := newApp(newTestDB(t), config.AuthConfig{
		Level:        config.AuthFunction,
		FunctionKeys: []string{"front-desk"},
	})

	status, _ := send(t, app, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = send(t, app, http.MethodGet, "/api/findAllCustomer", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := send(t, app, http.MethodGet, "/api/findAllCustomer", "", middlewares.FunctionKeyHeader, "front-desk")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, body)

	status, _ = send(t, app, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, status)
}

func TestRegister_AuthBeforeIdCheck(t *testing.T) {
	app := newApp(newTestDB(t), config.AuthConfig{
		Level:        config.AuthFunction,
		FunctionKeys: []string{"front-desk"},
	})

	status, _ := send(t, app, http.MethodDelete, "/api/deleteCustomer/abc", "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRegister_Lifecycle(t *testing.T) {
	app := newApp(newTestDB(t), config.AuthConfig{Level: config.AuthAnonymous})

	status, body := send(t, app, http.MethodPost, "/api/saveCustomer", `{"name":"Rex","phone":"555","email":"r@x.com","address":"Main St"}`)
	require.Equal(t, http.StatusCreated, status, body)
	assert.JSONEq(t, `{"id":1,"name":"Rex","phone":"555","email":"r@x.com","address":"Main St"}`, body)

	status, body = send(t, app, http.MethodPut, "/api/updateCustomer/1", `{"name":"Rex2","phone":"555","email":"r@x.com","address":"Main St"}`)
	require.Equal(t, http.StatusOK, status, body)
	assert.JSONEq(t, `{"id":1,"name":"Rex2","phone":"555","email":"r@x.com","address":"Main St"}`, body)

	status, _ = send(t, app, http.MethodDelete, "/api/deleteCustomer/1", "")
	require.Equal(t, http.StatusOK, status)

	status, _ = send(t, app, http.MethodGet, "/api/findCustomerById/1", "")
	assert.Equal(t, http.StatusNotFound, status)
}
