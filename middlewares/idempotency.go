package middlewares

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"veterinary-backend/models"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"

	maxIdempotencyKeyLen = 128
)

// Idempotency processes Idempotency-Key for mutating HTTP methods. Successful
// responses are stored and replayed for later requests with the same key and
// payload; failed ones release the key so the client can retry.
func Idempotency(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		method := strings.ToUpper(c.Method())
		if method != fiber.MethodPost && method != fiber.MethodPut && method != fiber.MethodPatch && method != fiber.MethodDelete {
			return c.Next()
		}

		key := strings.TrimSpace(c.Get(IdempotencyKeyHeader))
		if key == "" {
			return c.Next()
		}
		if len(key) > maxIdempotencyKeyLen {
			return c.Status(fiber.StatusBadRequest).SendString("Idempotency-Key too long")
		}

		path := c.OriginalURL() // includes query string
		reqHash := requestHash(method, path, c.Body())
		ctx := c.UserContext()
		logger := GetLogger(c)

		// ---- Phase 1: read or create the "pending" record
		var existing models.IdempotencyKey
		created := false
		conn := db.WithContext(ctx)
		err := conn.Where(&models.IdempotencyKey{Key: key}).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			rec := models.IdempotencyKey{
				Key:         key,
				RequestHash: reqHash,
				Method:      method,
				Path:        path,
			}
			if err = conn.Create(&rec).Error; err == nil {
				existing = rec
				created = true
			} else {
				// unique race: somebody else holds the key now
				err = conn.Where(&models.IdempotencyKey{Key: key}).First(&existing).Error
			}
		}
		if err != nil {
			logger.Error().Err(err).Str("idempotency_key", key).Msg("idempotency lookup failed")
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency lookup failed")
		}

		if existing.RequestHash != reqHash {
			return c.Status(fiber.StatusConflict).SendString("Idempotency-Key reuse with different request")
		}
		if !created {
			if existing.Pending() {
				return c.Status(fiber.StatusConflict).SendString("request with this Idempotency-Key is in progress")
			}
			logger.Info().Str("idempotency_key", key).Msg("replaying stored response")
			body := existing.Body()
			if len(body) > 0 {
				c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			}
			return c.Status(existing.ResponseStatus).Send(body)
		}

		handlerErr := c.Next()

		// ---- Phase 2: store the response, or release the key
		status := c.Response().StatusCode()
		if handlerErr != nil || status < 200 || status >= 300 {
			if err := conn.Where(&models.IdempotencyKey{Key: key}).Delete(&models.IdempotencyKey{}).Error; err != nil {
				logger.Error().Err(err).Str("idempotency_key", key).Msg("failed to release idempotency key")
			}
			return handlerErr
		}

		var stored interface{} // NULL unless the body is JSON
		if resp := c.Response().Body(); len(resp) > 0 && json.Valid(resp) {
			blob := make([]byte, len(resp))
			copy(blob, resp)
			stored = datatypes.JSON(blob)
		}

		now := time.Now().UTC()
		err = conn.Model(&models.IdempotencyKey{}).
			Where(&models.IdempotencyKey{Key: key}).
			Updates(map[string]any{
				"response_status": status,
				"response_body":   stored,
				"completed_at":    &now,
			}).Error
		if err != nil {
			// best-effort: don't break the successful response
			logger.Error().Err(err).Str("idempotency_key", key).Msg("failed to store idempotent response")
		}
		return nil
	}
}

// requestHash is sha256 over method|path|body.
func requestHash(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{'\n'})
	h.Write([]byte(path))
	h.Write([]byte{'\n'})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
