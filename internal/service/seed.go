package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const (
	demoUsername = "demo"
	demoEmail    = "demo@example.com"
	demoPassword = "password123"
)

var sampleProducts = []CreateProductParams{
	{Name: "Trail Backpack", Description: "Lightweight 30L pack for day hikes", Category: "outdoor", PriceCents: 7900, Currency: "USD"},
	{Name: "City Sneaker", Description: "Everyday sneaker with cushioned sole", Category: "footwear", PriceCents: 12900, Currency: "USD"},
	{Name: "Travel Mug", Description: "Insulated steel mug, 350ml", Category: "kitchen", PriceCents: 2400, Currency: "USD"},
	{Name: "Mountain Jacket", Description: "Waterproof shell for alpine weather", Category: "outdoor", PriceCents: 18400, Currency: "USD"},
}

// SeedDemoData creates the demo user and the sample catalog. It does nothing
// when the demo user already exists.
func (s *CommerceService) SeedDemoData(ctx context.Context) error {
	existing, err := s.users.GetByUsername(ctx, demoUsername)
	if err != nil {
		return fmt.Errorf("failed to look up demo user: %w", err)
	}
	if existing != nil {
		s.logger.Info("Demo data already present, skipping seed")
		return nil
	}

	if _, err := s.Register(ctx, demoEmail, demoUsername, demoPassword); err != nil {
		return fmt.Errorf("failed to seed demo user: %w", err)
	}

	for _, params := range sampleProducts {
		if _, err := s.CreateProduct(ctx, params); err != nil {
			return fmt.Errorf("failed to seed product %q: %w", params.Name, err)
		}
	}

	s.logger.Info("Seeded demo user and products", zap.Int("products", len(sampleProducts)))
	return nil
}
