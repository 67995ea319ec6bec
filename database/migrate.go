package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"veterinary-backend/models"
)

// Migrate applies the (idempotent) schema for the customer store:
// - AutoMigrate (tables/columns/index tags)
// - PostgreSQL only: ids drawn from customer_seq, realigned with existing rows
func Migrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(
			&models.Customer{},
			&models.IdempotencyKey{},
		); err != nil {
			return fmt.Errorf("automigrate failed: %w", err)
		}

		if tx.Dialector.Name() != "postgres" {
			return nil
		}

		stmts := []string{
			`CREATE SEQUENCE IF NOT EXISTS customer_seq INCREMENT BY 1`,
			`ALTER TABLE customer ALTER COLUMN id SET DEFAULT nextval('customer_seq')`,
			`ALTER SEQUENCE customer_seq OWNED BY customer.id`,
			`SELECT setval('customer_seq', COALESCE((SELECT MAX(id) FROM customer), 0) + 1, false)`,
		}
		for _, stmt := range stmts {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("sequence migration failed on: %s - %w", stmt, err)
			}
		}
		return nil
	})
}
