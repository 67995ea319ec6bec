package middlewares

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

var errEmptyBody = errors.New("empty request body")

// DecodeBody parses the raw JSON body into dst and validates it. The
// Content-Type header is not consulted.
func DecodeBody(c *fiber.Ctx, dst interface{}) error {
	body := bytes.TrimSpace(c.Body())
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return errEmptyBody
	}
	if err := c.App().Config().JSONDecoder(body, dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return ValidateStruct(dst)
}

// ValidateStruct validates any struct value using the shared validator instance.
func ValidateStruct(v interface{}) error {
	return validate.Struct(v)
}
