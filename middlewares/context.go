package middlewares

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	RequestIDHeader = "X-Request-ID"

	loggerKey    = "logger"
	requestIDKey = "request_id"
)

// RequestLogger attaches a request-scoped logger (tagged with the request id)
// to the context and writes one access line per request.
func RequestLogger(base zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		requestID := c.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDHeader, requestID)
		c.Locals(requestIDKey, requestID)

		method := c.Method()
		path := c.Path()
		logger := base.With().
			Str("request_id", requestID).
			Str("method", method).
			Str("path", path).
			Logger()
		c.Locals(loggerKey, &logger)

		err := c.Next()

		// A returned error has not been rendered yet; the error handler will
		// pick the status.
		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		var e *zerolog.Event
		switch {
		case status >= 500:
			e = logger.Error()
		case status >= 400:
			e = logger.Warn()
		default:
			e = logger.Info()
		}
		e.Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", c.IP()).
			Str("user_agent", c.Get(fiber.HeaderUserAgent)).
			Msg("API")

		return err
	}
}

// GetLogger returns the request logger, or a no-op logger outside a request.
func GetLogger(c *fiber.Ctx) *zerolog.Logger {
	if logger, ok := c.Locals(loggerKey).(*zerolog.Logger); ok {
		return logger
	}
	logger := zerolog.Nop()
	return &logger
}

func GetRequestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestIDKey).(string); ok {
		return id
	}
	return ""
}
