package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"veterinary-backend/middlewares"
	"veterinary-backend/models"
	"veterinary-backend/services"
)

// CustomerController serves the customer endpoints on top of a CustomerService.
type CustomerController struct {
	service services.CustomerService
}

func NewCustomerController(service services.CustomerService) *CustomerController {
	return &CustomerController{service: service}
}

// FindAllCustomer returns every stored customer as a JSON array.
func (h *CustomerController) FindAllCustomer(c *fiber.Ctx) error {
	log := middlewares.GetLogger(c)
	log.Info().Msg("listing customers")

	customers, err := h.service.FindAll(c.UserContext())
	if err != nil {
		log.Error().Err(err).Msg("could not list customers")
		return c.Status(fiber.StatusInternalServerError).SendString("error retrieving customers")
	}
	return c.JSON(customers)
}

func (h *CustomerController) FindCustomerById(c *fiber.Ctx) error {
	log := middlewares.GetLogger(c)
	log.Info().Str("id", c.Params("id")).Msg("finding customer")

	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(middlewares.InvalidIDMessage)
	}

	customer, found, err := h.service.FindCustomerByID(c.UserContext(), id)
	if err != nil {
		log.Error().Err(err).Int64("id", id).Msg("could not find customer")
		return c.Status(fiber.StatusInternalServerError).SendString("error finding customer")
	}
	if !found {
		return notFound(c, id)
	}
	return c.JSON(customer)
}

// SaveCustomer creates a customer from the request body. The store assigns
// the id; any id in the body is ignored.
func (h *CustomerController) SaveCustomer(c *fiber.Ctx) error {
	log := middlewares.GetLogger(c)
	log.Info().Msg("saving customer")

	var in models.Customer
	if err := middlewares.DecodeBody(c, &in); err != nil {
		log.Error().Err(err).Msg("could not parse customer")
		return c.Status(fiber.StatusInternalServerError).SendString("error saving customer")
	}

	in.Id = 0
	saved, err := h.service.SaveCustomer(c.UserContext(), in)
	if err != nil {
		log.Error().Err(err).Msg("could not save customer")
		return c.Status(fiber.StatusInternalServerError).SendString("error saving customer")
	}
	return c.Status(fiber.StatusCreated).JSON(saved)
}

// UpdateCustomer overlays the body onto the stored customer. The id always
// comes from the path.
func (h *CustomerController) UpdateCustomer(c *fiber.Ctx) error {
	log := middlewares.GetLogger(c)
	log.Info().Str("id", c.Params("id")).Msg("updating customer")

	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(middlewares.InvalidIDMessage)
	}

	var in models.Customer
	if err := middlewares.DecodeBody(c, &in); err != nil {
		log.Error().Err(err).Int64("id", id).Msg("could not parse customer")
		return c.Status(fiber.StatusInternalServerError).SendString("error updating customer")
	}

	ctx := c.UserContext()
	existing, found, err := h.service.FindCustomerByID(ctx, id)
	if err != nil {
		log.Error().Err(err).Int64("id", id).Msg("could not load customer")
		return c.Status(fiber.StatusInternalServerError).SendString("error updating customer")
	}
	if !found {
		return notFound(c, id)
	}

	existing.Id = id
	existing.Overlay(in)
	updated, err := h.service.UpdateCustomer(ctx, existing)
	if err != nil {
		log.Error().Err(err).Int64("id", id).Msg("could not update customer")
		return c.Status(fiber.StatusInternalServerError).SendString("error updating customer")
	}
	return c.JSON(updated)
}

func (h *CustomerController) DeleteCustomer(c *fiber.Ctx) error {
	log := middlewares.GetLogger(c)
	log.Info().Str("id", c.Params("id")).Msg("deleting customer")

	id, err := parseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(middlewares.InvalidIDMessage)
	}

	ctx := c.UserContext()
	_, found, err := h.service.FindCustomerByID(ctx, id)
	if err != nil {
		log.Error().Err(err).Int64("id", id).Msg("could not load customer")
		return c.Status(fiber.StatusInternalServerError).SendString("error deleting customer")
	}
	if !found {
		return notFound(c, id)
	}

	if err := h.service.DeleteCustomer(ctx, id); err != nil {
		log.Error().Err(err).Int64("id", id).Msg("could not delete customer")
		return c.Status(fiber.StatusInternalServerError).SendString("error deleting customer")
	}
	return c.Status(fiber.StatusOK).Send(nil)
}

func parseID(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}

func notFound(c *fiber.Ctx, id int64) error {
	return c.Status(fiber.StatusNotFound).SendString("customer with id " + strconv.FormatInt(id, 10) + " not found")
}
