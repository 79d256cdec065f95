package service

import (
	"context"
	"fmt"
	"sort"

	"commerce-service/internal/models"
	"commerce-service/internal/util"

	"github.com/google/uuid"
)

// RecommendProducts suggests products from the category the user has bought
// most often. Users without orders, or whose ordered products can no longer
// be resolved, get the newest products instead. The result holds at most the
// configured number of products, newest first.
func (s *CommerceService) RecommendProducts(ctx context.Context, userID uuid.UUID) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CommerceService.RecommendProducts")
	defer span.End()

	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	category, err := s.favouriteCategory(ctx, orders)
	if err != nil {
		return nil, err
	}

	var products []models.Product
	if category == "" {
		util.RecommendationsServedTotal.WithLabelValues("fallback").Inc()
		products, err = s.products.List(ctx)
	} else {
		util.RecommendationsServedTotal.WithLabelValues("category").Inc()
		products, err = s.products.ListByCategory(ctx, category)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	if len(products) > s.recommendationLimit {
		products = products[:s.recommendationLimit]
	}
	return products, nil
}

// favouriteCategory counts the categories of every item in orders and returns
// the most frequent one, or "" when nothing resolves.
//
// Orders are scanned in the order given (newest first) and the categories of
// one order are scanned alphabetically. A tie goes to the category seen first
// in that scan, i.e. the one bought most recently.
func (s *CommerceService) favouriteCategory(ctx context.Context, orders []models.Order) (string, error) {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	resolved := make(map[uuid.UUID]string)

	seq := 0
	for _, order := range orders {
		items, err := s.orders.ListItems(ctx, order.ID)
		if err != nil {
			return "", fmt.Errorf("failed to list order items: %w", err)
		}

		categories := make([]string, 0, len(items))
		for _, item := range items {
			category, ok := resolved[item.ProductID]
			if !ok {
				product, err := s.products.GetByID(ctx, item.ProductID)
				if err != nil {
					return "", fmt.Errorf("failed to look up product %s: %w", item.ProductID, err)
				}
				if product != nil {
					category = product.Category
				}
				resolved[item.ProductID] = category
			}
			if category != "" {
				categories = append(categories, category)
			}
		}
		sort.Strings(categories)

		for _, category := range categories {
			if _, ok := firstSeen[category]; !ok {
				firstSeen[category] = seq
			}
			counts[category]++
			seq++
		}
	}

	best := ""
	for category, count := range counts {
		switch {
		case best == "":
			best = category
		case count > counts[best]:
			best = category
		case count == counts[best] && firstSeen[category] < firstSeen[best]:
			best = category
		}
	}
	return best, nil
}
