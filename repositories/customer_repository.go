// Package repositories holds the data-access layer for customers.
package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"veterinary-backend/database"
	"veterinary-backend/models"
)

// CustomerRepository specifies customer persistence operations.
type CustomerRepository interface {
	FindAll(ctx context.Context) ([]models.Customer, error)
	// FindByID reports found == false when no row has the id.
	FindByID(ctx context.Context, id int64) (models.Customer, bool, error)
	// Save inserts when c.Id is zero and updates every column otherwise.
	Save(ctx context.Context, c *models.Customer) (models.Customer, error)
	// DeleteByID is a no-op for unknown ids.
	DeleteByID(ctx context.Context, id int64) error
}

// GormCustomerRepo implements CustomerRepository using GORM.
type GormCustomerRepo struct {
	db *gorm.DB
}

func NewGormCustomerRepo(db *gorm.DB) CustomerRepository {
	return &GormCustomerRepo{db: db}
}

func (r *GormCustomerRepo) FindAll(ctx context.Context) ([]models.Customer, error) {
	customers := []models.Customer{}
	if err := database.Conn(ctx, r.db).Order("id").Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *GormCustomerRepo) FindByID(ctx context.Context, id int64) (models.Customer, bool, error) {
	var c models.Customer
	if err := database.Conn(ctx, r.db).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Customer{}, false, nil
		}
		return models.Customer{}, false, err
	}
	return c, true, nil
}

func (r *GormCustomerRepo) Save(ctx context.Context, c *models.Customer) (models.Customer, error) {
	if err := database.Conn(ctx, r.db).Save(c).Error; err != nil {
		return models.Customer{}, err
	}
	return *c, nil
}

func (r *GormCustomerRepo) DeleteByID(ctx context.Context, id int64) error {
	return database.Conn(ctx, r.db).Delete(&models.Customer{}, "id = ?", id).Error
}
