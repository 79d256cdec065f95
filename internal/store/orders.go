package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"commerce-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	orderColumns     = "id, user_id, total_cents, currency, status, created_at"
	orderItemColumns = "id, order_id, product_id, quantity, price_cents"
)

// OrderRepository maps orders and order_items rows.
type OrderRepository struct {
	store *Store
}

// Create writes the order row and all of its items in one transaction.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	return r.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO orders (id, user_id, total_cents, currency, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			order.ID, order.UserID, order.TotalCents, order.Currency, order.Status, order.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", translateError(err))
		}

		for _, item := range items {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO order_items (id, order_id, product_id, quantity, price_cents)
				VALUES ($1, $2, $3, $4, $5)`,
				item.ID, item.OrderID, item.ProductID, item.Quantity, item.PriceCents)
			if err != nil {
				return fmt.Errorf("failed to insert order item: %w", translateError(err))
			}
		}
		return nil
	})
}

// GetByID returns nil when the order does not exist
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.store.db.GetContext(ctx, &order,
		"SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByUser retrieves orders for a user, newest first
func (r *OrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.store.db.SelectContext(ctx, &orders,
		"SELECT "+orderColumns+" FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return orders, err
}

// ListItems retrieves all items for an order
func (r *OrderRepository) ListItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.store.db.SelectContext(ctx, &items,
		"SELECT "+orderItemColumns+" FROM order_items WHERE order_id = $1", orderID)
	return items, err
}
