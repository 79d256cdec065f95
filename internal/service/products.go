package service

import (
	"context"
	"fmt"

	"commerce-service/internal/models"
	"commerce-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateProductParams describes a new catalog entry
type CreateProductParams struct {
	Name        string
	Description string
	Category    string
	PriceCents  int64
	Currency    string
}

// CreateProduct validates and stores a product. An empty currency falls back
// to the configured default.
func (s *CommerceService) CreateProduct(ctx context.Context, params CreateProductParams) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CommerceService.CreateProduct")
	defer span.End()

	if params.PriceCents <= 0 {
		return nil, newValidationError("price must be positive")
	}

	currency := params.Currency
	if currency == "" {
		currency = s.currency
	}

	product := &models.Product{
		ID:          uuid.New(),
		Name:        params.Name,
		Description: params.Description,
		Category:    params.Category,
		PriceCents:  params.PriceCents,
		Currency:    currency,
		CreatedAt:   s.now(),
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	util.ProductsCreatedTotal.Inc()
	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("category", product.Category))

	s.publishProductCreated(ctx, product)
	return product, nil
}

// ListProducts returns the whole catalog, newest first
func (s *CommerceService) ListProducts(ctx context.Context) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CommerceService.ListProducts")
	defer span.End()

	products, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}
