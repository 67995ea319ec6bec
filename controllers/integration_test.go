package controllers

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"veterinary-backend/database"
	"veterinary-backend/middlewares"
	"veterinary-backend/models"
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

func newGormApp(t *testing.T) (*fiber.App, *gorm.DB) {
	db := newTestDB(t)
	svc := services.NewCustomerService(repositories.NewGormCustomerRepo(db))
	return newCustomerApp(svc, middlewares.Idempotency(db), middlewares.Transaction(db)), db
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestGormStack_Lifecycle(t *testing.T) {
	app, db := newGormApp(t)

	created := createCustomer(t, app, `{"name":"A","phone":"1","email":"a@x","address":"Z"}`)
	id := strconv.FormatInt(created.Id, 10)

	status, body := doRequest(t, app, http.MethodPut, "/updateCustomer/"+id, `{"id":999,"name":"B","phone":"2","email":"b@x","address":"Y"}`)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, models.Customer{Id: created.Id, Name: "B", Phone: "2", Email: "b@x", Address: "Y"}, decodeCustomer(t, body))

	status, body = doRequest(t, app, http.MethodGet, "/findCustomerById/"+id, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "B", decodeCustomer(t, body).Name)

	status, _ = doRequest(t, app, http.MethodDelete, "/deleteCustomer/"+id, "")
	require.Equal(t, http.StatusOK, status)

	status, _ = doRequest(t, app, http.MethodGet, "/findCustomerById/"+id, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Zero(t, countRows(t, db, &models.Customer{}))
}

func TestGormStack_IdempotentCreate(t *testing.T) {
	app, db := newGormApp(t)
	payload := `{"name":"A","email":"a@x"}`

	status, first := doRequest(t, app, http.MethodPost, "/saveCustomer", payload, middlewares.IdempotencyKeyHeader, "create-1")
	require.Equal(t, http.StatusCreated, status, first)

	status, second := doRequest(t, app, http.MethodPost, "/saveCustomer", payload, middlewares.IdempotencyKeyHeader, "create-1")
	require.Equal(t, http.StatusCreated, status)
	assert.JSONEq(t, first, second)
	assert.Equal(t, int64(1), countRows(t, db, &models.Customer{}))

	status, _ = doRequest(t, app, http.MethodPost, "/saveCustomer", `{"name":"other"}`, middlewares.IdempotencyKeyHeader, "create-1")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, int64(1), countRows(t, db, &models.Customer{}))
}

func TestGormStack_FailedRequestReleasesKey(t *testing.T) {
	app, db := newGormApp(t)

	status, _ := doRequest(t, app, http.MethodPut, "/updateCustomer/77", `{"name":"B"}`, middlewares.IdempotencyKeyHeader, "update-77")
	require.Equal(t, http.StatusNotFound, status)
	assert.Zero(t, countRows(t, db, &models.IdempotencyKey{}))

	// the same key may be retried
	status, _ = doRequest(t, app, http.MethodPut, "/updateCustomer/77", `{"name":"B"}`, middlewares.IdempotencyKeyHeader, "update-77")
	assert.Equal(t, http.StatusNotFound, status)
}
