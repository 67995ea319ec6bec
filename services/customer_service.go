// Package services contains the customer business facade.
package services

import (
	"context"

	"veterinary-backend/models"
	"veterinary-backend/repositories"
)

// CustomerService exposes customer-related business operations.
type CustomerService interface {
	FindAll(ctx context.Context) ([]models.Customer, error)
	FindCustomerByID(ctx context.Context, id int64) (models.Customer, bool, error)
	// SaveCustomer inserts when c.Id is zero and replaces the row otherwise.
	SaveCustomer(ctx context.Context, c models.Customer) (models.Customer, error)
	// UpdateCustomer persists a record the caller already loaded and merged.
	UpdateCustomer(ctx context.Context, c models.Customer) (models.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) error
}

// customerService implements CustomerService.
type customerService struct {
	repo repositories.CustomerRepository
}

// NewCustomerService constructs a CustomerService backed by the provided repository.
func NewCustomerService(repo repositories.CustomerRepository) CustomerService {
	return &customerService{repo: repo}
}

func (s *customerService) FindAll(ctx context.Context) ([]models.Customer, error) {
	return s.repo.FindAll(ctx)
}

func (s *customerService) FindCustomerByID(ctx context.Context, id int64) (models.Customer, bool, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *customerService) SaveCustomer(ctx context.Context, c models.Customer) (models.Customer, error) {
	return s.repo.Save(ctx, &c)
}

func (s *customerService) UpdateCustomer(ctx context.Context, c models.Customer) (models.Customer, error) {
	return s.repo.Save(ctx, &c)
}

func (s *customerService) DeleteCustomer(ctx context.Context, id int64) error {
	return s.repo.DeleteByID(ctx, id)
}
