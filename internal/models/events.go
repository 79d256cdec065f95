package models

import "time"

// Event types
const (
	EventTypeUserRegistered = "USER_REGISTERED"
	EventTypeProductCreated = "PRODUCT_CREATED"
	EventTypeOrderCreated   = "ORDER_CREATED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// UserRegisteredEvent published when a user signs up
type UserRegisteredEvent struct {
	BaseEvent
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// ProductCreatedEvent published when a product is added to the catalog
type ProductCreatedEvent struct {
	BaseEvent
	ProductID  string `json:"product_id"`
	Category   string `json:"category"`
	PriceCents int64  `json:"price_cents"`
	Currency   string `json:"currency"`
}

// OrderCreatedEvent published after the order and its items are committed
type OrderCreatedEvent struct {
	BaseEvent
	OrderID    string          `json:"order_id"`
	UserID     string          `json:"user_id"`
	TotalCents int64           `json:"total_cents"`
	Currency   string          `json:"currency"`
	Items      []OrderItemData `json:"items"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	ProductID  string `json:"product_id"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}
