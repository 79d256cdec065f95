package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"commerce-service/internal/models"
	"commerce-service/internal/util"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// maxQuantity is the largest value the order_items.quantity column holds.
const maxQuantity = math.MaxInt32

const (
	orderLockTTL      = 30 * time.Second
	orderLockWait     = 10 * time.Second
	orderLockInterval = 20 * time.Millisecond
)

// OrderLine is one requested product and quantity
type OrderLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateOrder prices the lines at current product prices and stores the
// order with its items in one transaction.
func (s *CommerceService) CreateOrder(ctx context.Context, userID uuid.UUID, lines []OrderLine) (order *models.Order, items []models.OrderItem, err error) {
	ctx, span := util.StartSpan(ctx, "CommerceService.CreateOrder",
		attribute.String("user_id", userID.String()),
		attribute.Int("lines", len(lines)))
	defer func() { util.EndSpan(span, err) }()

	if len(lines) == 0 {
		util.OrdersFailedTotal.WithLabelValues("empty").Inc()
		return nil, nil, newValidationError("order items cannot be empty")
	}
	for _, line := range lines {
		if line.Quantity < 1 {
			util.OrdersFailedTotal.WithLabelValues("invalid_quantity").Inc()
			return nil, nil, newValidationError("quantity must be at least 1")
		}
		if line.Quantity > maxQuantity {
			util.OrdersFailedTotal.WithLabelValues("invalid_quantity").Inc()
			return nil, nil, newValidationError("quantity must be at most %d", maxQuantity)
		}
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		util.OrdersFailedTotal.WithLabelValues("unknown_user").Inc()
		return nil, nil, newValidationError("user does not exist")
	}

	products, err := s.resolveProducts(ctx, lines)
	if err != nil {
		return nil, nil, err
	}

	orderID := uuid.New()
	items = make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.OrderItem{
			ID:         uuid.New(),
			OrderID:    orderID,
			ProductID:  line.ProductID,
			Quantity:   line.Quantity,
			PriceCents: products[line.ProductID].PriceCents,
		})
	}

	total, ok := calculateTotal(items)
	if !ok {
		util.OrdersFailedTotal.WithLabelValues("total_overflow").Inc()
		return nil, nil, newValidationError("order total is too large")
	}

	order = &models.Order{
		ID:         orderID,
		UserID:     userID,
		TotalCents: total,
		Currency:   s.currency,
		Status:     models.OrderStatusCreated,
		CreatedAt:  s.now(),
	}

	if err := s.orders.Create(ctx, order, items); err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, nil, fmt.Errorf("failed to create order: %w", err)
	}

	util.OrdersCreatedTotal.Inc()
	util.OrderValueCents.Observe(float64(order.TotalCents))
	s.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Int64("total_cents", order.TotalCents))

	s.publishOrderCreated(ctx, order, items)
	return order, items, nil
}

// CreateOrderIdempotent behaves like CreateOrder, except that a key already
// seen returns the order it produced the first time. With an empty key or no
// idempotency store it is plain CreateOrder. Requests sharing a key are
// serialized through the Locker when one is configured.
func (s *CommerceService) CreateOrderIdempotent(ctx context.Context, key string, userID uuid.UUID, lines []OrderLine) (*models.Order, []models.OrderItem, error) {
	if key == "" || s.idempotency == nil {
		return s.CreateOrder(ctx, userID, lines)
	}

	unlock, err := s.lockOrderKey(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	orderID, found, err := s.idempotency.LookupOrder(ctx, key)
	if err != nil {
		s.logger.Warn("Idempotency lookup failed", zap.String("idempotency_key", key), zap.Error(err))
	}
	if found {
		existing, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load order for idempotency key: %w", err)
		}
		if existing != nil {
			if existing.UserID != userID {
				return nil, nil, newValidationError("idempotency key already used by another user")
			}
			items, err := s.orders.ListItems(ctx, existing.ID)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to load order items: %w", err)
			}
			util.OrdersReplayedTotal.Inc()
			s.logger.Info("Duplicate order request detected",
				zap.String("idempotency_key", key),
				zap.String("order_id", existing.ID.String()))
			return existing, items, nil
		}
	}

	order, items, err := s.CreateOrder(ctx, userID, lines)
	if err != nil {
		return nil, nil, err
	}

	if err := s.idempotency.RememberOrder(ctx, key, order.ID); err != nil {
		s.logger.Warn("Failed to store idempotency key", zap.String("idempotency_key", key), zap.Error(err))
	}
	return order, items, nil
}

// lockOrderKey waits for the lock on an idempotency key. A request that
// cannot get the lock within orderLockWait is rejected; a failing locker is
// logged and the request goes ahead unlocked.
func (s *CommerceService) lockOrderKey(ctx context.Context, key string) (func(), error) {
	noop := func() {}
	if s.locker == nil {
		return noop, nil
	}

	lockKey := "order:" + key
	deadline := time.NewTimer(orderLockWait)
	defer deadline.Stop()

	for {
		token, ok, err := s.locker.AcquireLock(ctx, lockKey, orderLockTTL)
		if err != nil {
			s.logger.Warn("Order lock unavailable", zap.String("idempotency_key", key), zap.Error(err))
			return noop, nil
		}
		if ok {
			return func() {
				if err := s.locker.ReleaseLock(context.Background(), lockKey, token); err != nil {
					s.logger.Warn("Failed to release order lock", zap.String("idempotency_key", key), zap.Error(err))
				}
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, newValidationError("order with this idempotency key is already in progress")
		case <-time.After(orderLockInterval):
		}
	}
}

// ListOrders returns a user's orders, newest first
func (s *CommerceService) ListOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	ctx, span := util.StartSpan(ctx, "CommerceService.ListOrders")
	defer span.End()

	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// ListOrderItems returns the items of an order in no particular order
func (s *CommerceService) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	items, err := s.orders.ListItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	return items, nil
}

// resolveProducts loads every product referenced by lines
func (s *CommerceService) resolveProducts(ctx context.Context, lines []OrderLine) (map[uuid.UUID]*models.Product, error) {
	products := make(map[uuid.UUID]*models.Product, len(lines))
	for _, line := range lines {
		if _, ok := products[line.ProductID]; ok {
			continue
		}

		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up product %s: %w", line.ProductID, err)
		}
		if product == nil {
			util.OrdersFailedTotal.WithLabelValues("unknown_product").Inc()
			return nil, newValidationError("product %s does not exist", line.ProductID)
		}
		products[line.ProductID] = product
	}
	return products, nil
}

// calculateTotal sums the line totals. ok is false when a line total or the
// sum does not fit in an int64.
func calculateTotal(items []models.OrderItem) (total int64, ok bool) {
	for _, item := range items {
		if item.PriceCents > 0 && int64(item.Quantity) > math.MaxInt64/item.PriceCents {
			return 0, false
		}
		line := item.LineTotal()
		if total > math.MaxInt64-line {
			return 0, false
		}
		total += line
	}
	return total, true
}
