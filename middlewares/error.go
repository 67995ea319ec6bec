package middlewares

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler is the last stop for anything a handler returned or panicked
// with. Messages stay sanitized: only *fiber.Error text reaches the client.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).SendString(fe.Message)
	}

	GetLogger(c).Error().Err(err).Msg("internal error")
	return c.Status(fiber.StatusInternalServerError).SendString("internal server error")
}
