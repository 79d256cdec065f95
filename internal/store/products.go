package store

import (
	"context"
	"database/sql"
	"errors"

	"commerce-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const productColumns = "id, name, description, category, price_cents, currency, created_at"

// ProductRepository maps products rows.
type ProductRepository struct {
	store *Store
}

// Create inserts a product
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	return r.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO products (id, name, description, category, price_cents, currency, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			product.ID, product.Name, product.Description, product.Category,
			product.PriceCents, product.Currency, product.CreatedAt)
		return translateError(err)
	})
}

// GetByID returns nil when the product does not exist
func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.store.db.GetContext(ctx, &product,
		"SELECT "+productColumns+" FROM products WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// List retrieves all products, newest first
func (r *ProductRepository) List(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.store.db.SelectContext(ctx, &products,
		"SELECT "+productColumns+" FROM products ORDER BY created_at DESC")
	return products, err
}

// ListByCategory retrieves the products of one category, newest first
func (r *ProductRepository) ListByCategory(ctx context.Context, category string) ([]models.Product, error) {
	var products []models.Product
	err := r.store.db.SelectContext(ctx, &products,
		"SELECT "+productColumns+" FROM products WHERE category = $1 ORDER BY created_at DESC", category)
	return products, err
}
