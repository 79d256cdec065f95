package service

import (
	"context"

	"commerce-service/internal/models"
	"commerce-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *CommerceService) newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: s.now(),
	}
}

func (s *CommerceService) publishUserRegistered(ctx context.Context, user *models.User) {
	if s.publisher == nil {
		return
	}
	event := &models.UserRegisteredEvent{
		BaseEvent: s.newBaseEvent(models.EventTypeUserRegistered),
		UserID:    user.ID.String(),
		Username:  user.Username,
	}
	s.logPublishError(event.EventType, s.publisher.PublishUserRegistered(ctx, event))
}

func (s *CommerceService) publishProductCreated(ctx context.Context, product *models.Product) {
	if s.publisher == nil {
		return
	}
	event := &models.ProductCreatedEvent{
		BaseEvent:  s.newBaseEvent(models.EventTypeProductCreated),
		ProductID:  product.ID.String(),
		Category:   product.Category,
		PriceCents: product.PriceCents,
		Currency:   product.Currency,
	}
	s.logPublishError(event.EventType, s.publisher.PublishProductCreated(ctx, event))
}

func (s *CommerceService) publishOrderCreated(ctx context.Context, order *models.Order, items []models.OrderItem) {
	if s.publisher == nil {
		return
	}
	data := make([]models.OrderItemData, 0, len(items))
	for _, item := range items {
		data = append(data, models.OrderItemData{
			ProductID:  item.ProductID.String(),
			Quantity:   item.Quantity,
			PriceCents: item.PriceCents,
		})
	}
	event := &models.OrderCreatedEvent{
		BaseEvent:  s.newBaseEvent(models.EventTypeOrderCreated),
		OrderID:    order.ID.String(),
		UserID:     order.UserID.String(),
		TotalCents: order.TotalCents,
		Currency:   order.Currency,
		Items:      data,
	}
	s.logPublishError(event.EventType, s.publisher.PublishOrderCreated(ctx, event))
}

// Publishing is best effort; the write it describes is already committed.
func (s *CommerceService) logPublishError(eventType string, err error) {
	if err == nil {
		return
	}
	util.EventsPublishFailedTotal.WithLabelValues(eventType).Inc()
	s.logger.Error("Failed to publish event", zap.String("event_type", eventType), zap.Error(err))
}
