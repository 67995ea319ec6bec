package routes

import (
	"github.com/gofiber/fiber/v2"

	"veterinary-backend/controllers"
	"veterinary-backend/middlewares"
)

// Register wires all HTTP routes. Guards are attached per route so unknown
// paths still reach the 404 handler. Order on each route: auth, id check,
// then store guards (idempotency before the transaction). The health check
// stays unguarded.
func Register(app *fiber.App, prefix string, customers *controllers.CustomerController, health *controllers.HealthController, auth fiber.Handler, store ...fiber.Handler) {
	app.Get("/healthz", health.CheckHealth)

	api := app.Group(prefix)

	chain := func(withID bool, h fiber.Handler) []fiber.Handler {
		handlers := []fiber.Handler{auth}
		if withID {
			handlers = append(handlers, middlewares.NumericID("id"))
		}
		handlers = append(handlers, store...)
		return append(handlers, h)
	}

	api.Get("/findAllCustomer", chain(false, customers.FindAllCustomer)...)
	api.Get("/findCustomerById/:id", chain(true, customers.FindCustomerById)...)
	api.Post("/saveCustomer", chain(false, customers.SaveCustomer)...)
	api.Put("/updateCustomer/:id", chain(true, customers.UpdateCustomer)...)
	api.Delete("/deleteCustomer/:id", chain(true, customers.DeleteCustomer)...)
}
