package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"veterinary-backend/middlewares"
)

const healthPingTimeout = 5 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthController reports whether the service and its store are reachable.
type HealthController struct {
	store Pinger
	env   string
}

// NewHealthController takes a nil store when customers live in memory.
func NewHealthController(store Pinger, env string) *HealthController {
	return &HealthController{store: store, env: env}
}

func (h *HealthController) CheckHealth(c *fiber.Ctx) error {
	log := middlewares.GetLogger(c)

	checks := fiber.Map{}
	response := fiber.Map{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.env,
		"checks":      checks,
	}

	if h.store == nil {
		checks["database"] = fiber.Map{"status": "healthy", "driver": "memory"}
		return c.JSON(response)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), healthPingTimeout)
	defer cancel()

	start := time.Now()
	if err := h.store.PingContext(ctx); err != nil {
		log.Error().Err(err).Dur("response_time", time.Since(start)).Msg("database health check failed")
		checks["database"] = fiber.Map{
			"status":        "unhealthy",
			"response_time": time.Since(start).String(),
		}
		response["status"] = "unhealthy"
		return c.Status(fiber.StatusServiceUnavailable).JSON(response)
	}

	checks["database"] = fiber.Map{
		"status":        "healthy",
		"response_time": time.Since(start).String(),
	}
	return c.JSON(response)
}
