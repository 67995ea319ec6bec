package middlewares

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const InvalidIDMessage = "invalid id: must be numeric"

// NumericID rejects a non-numeric route parameter with 400. Register it ahead
// of any guard that opens a transaction or writes idempotency rows.
func NumericID(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := strconv.ParseInt(c.Params(param), 10, 64); err != nil {
			return c.Status(fiber.StatusBadRequest).SendString(InvalidIDMessage)
		}
		return c.Next()
	}
}
