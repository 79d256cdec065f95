package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account. The password hash and salt stay out of JSON.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	PasswordSalt string    `db:"password_salt" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Product represents a product in the catalog
type Product struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Category    string    `db:"category" json:"category"`
	PriceCents  int64     `db:"price_cents" json:"price_cents"`
	Currency    string    `db:"currency" json:"currency"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Order represents a customer order
type Order struct {
	ID         uuid.UUID `db:"id" json:"id"`
	UserID     uuid.UUID `db:"user_id" json:"user_id"`
	TotalCents int64     `db:"total_cents" json:"total_cents"`
	Currency   string    `db:"currency" json:"currency"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// OrderItem is one line of an order. PriceCents is the product price at the
// time the order was placed.
type OrderItem struct {
	ID         uuid.UUID `db:"id" json:"id"`
	OrderID    uuid.UUID `db:"order_id" json:"order_id"`
	ProductID  uuid.UUID `db:"product_id" json:"product_id"`
	Quantity   int       `db:"quantity" json:"quantity"`
	PriceCents int64     `db:"price_cents" json:"price_cents"`
}

// LineTotal returns PriceCents * Quantity.
func (i OrderItem) LineTotal() int64 {
	return i.PriceCents * int64(i.Quantity)
}

// Order statuses
const (
	OrderStatusCreated = "created"
)

// DefaultCurrency is used when neither the request nor the config names one.
const DefaultCurrency = "USD"
