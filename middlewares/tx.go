package middlewares

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"veterinary-backend/database"
)

// Transaction opens a per-request DB transaction for mutating requests and
// hands it to the repositories through the request context.
// Order: run AFTER Idempotency() so idempotency records aren't tied to the
// handler TX.
func Transaction(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		switch c.Method() {
		case fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch, fiber.MethodDelete:
		default:
			return c.Next()
		}

		ctx := c.UserContext()
		tx := db.WithContext(ctx).Begin()
		if tx.Error != nil {
			GetLogger(c).Error().Err(tx.Error).Msg("failed to begin transaction")
			return fiber.NewError(fiber.StatusInternalServerError, "failed to begin transaction")
		}

		defer func() {
			if r := recover(); r != nil {
				_ = tx.Rollback()
				panic(r) // re-panic after rollback so the recover middleware sees it
			}
			if err != nil || c.Response().StatusCode() >= fiber.StatusBadRequest {
				_ = tx.Rollback()
				return
			}
			if e := tx.Commit().Error; e != nil {
				GetLogger(c).Error().Err(e).Msg("tx commit failed")
				err = fiber.NewError(fiber.StatusInternalServerError, "transaction commit failed")
			}
		}()

		c.SetUserContext(database.WithTx(ctx, tx))
		// restore so later middleware doesn't pick up a finished TX
		defer c.SetUserContext(ctx)

		err = c.Next()
		return err
	}
}
