package service

import (
	"context"
	"testing"

	"commerce-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productNames(products []models.Product) []string {
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Name)
	}
	return names
}

func TestRecommendWithoutOrdersReturnsNewest(t *testing.T) {
	env := newTestEnv(t)
	user := env.mustUser(t, "newbie")
	env.mustProduct(t, "Trail Backpack", "outdoor", 7900)
	env.mustProduct(t, "City Sneaker", "footwear", 12900)
	env.mustProduct(t, "Travel Mug", "kitchen", 2400)
	env.mustProduct(t, "Mountain Jacket", "outdoor", 18400)

	products, err := env.svc.RecommendProducts(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mountain Jacket", "Travel Mug", "City Sneaker"}, productNames(products))
}

func TestRecommendFavouriteCategory(t *testing.T) {
	env := newTestEnv(t)
	user := env.mustUser(t, "hiker")
	backpack := env.mustProduct(t, "Trail Backpack", "outdoor", 7900)
	sneaker := env.mustProduct(t, "City Sneaker", "footwear", 12900)
	env.mustProduct(t, "Travel Mug", "kitchen", 2400)
	env.mustProduct(t, "Mountain Jacket", "outdoor", 18400)

	env.mustOrder(t, user.ID, OrderLine{ProductID: backpack.ID, Quantity: 1})
	env.mustOrder(t, user.ID, OrderLine{ProductID: backpack.ID, Quantity: 1}, OrderLine{ProductID: sneaker.ID, Quantity: 5})

	products, err := env.svc.RecommendProducts(context.Background(), user.ID)
	require.NoError(t, err)
	// frequency counts items, not quantities
	assert.Equal(t, []string{"Mountain Jacket", "Trail Backpack"}, productNames(products))
}

func TestRecommendTieGoesToMostRecentOrder(t *testing.T) {
	env := newTestEnv(t)
	user := env.mustUser(t, "shopper")
	mug := env.mustProduct(t, "Travel Mug", "kitchen", 2400)
	sneaker := env.mustProduct(t, "City Sneaker", "footwear", 12900)

	env.mustOrder(t, user.ID, OrderLine{ProductID: mug.ID, Quantity: 1})
	env.mustOrder(t, user.ID, OrderLine{ProductID: sneaker.ID, Quantity: 1})

	products, err := env.svc.RecommendProducts(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"City Sneaker"}, productNames(products))
}

func TestRecommendTieWithinOneOrderIsAlphabetical(t *testing.T) {
	env := newTestEnv(t)
	user := env.mustUser(t, "shopper")
	mug := env.mustProduct(t, "Travel Mug", "kitchen", 2400)
	sneaker := env.mustProduct(t, "City Sneaker", "footwear", 12900)

	env.mustOrder(t, user.ID, OrderLine{ProductID: mug.ID, Quantity: 1}, OrderLine{ProductID: sneaker.ID, Quantity: 1})

	products, err := env.svc.RecommendProducts(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"City Sneaker"}, productNames(products))
}

func TestRecommendFallsBackWhenProductsAreGone(t *testing.T) {
	env := newTestEnv(t)
	user := env.mustUser(t, "shopper")
	gone := env.mustProduct(t, "Discontinued", "retired", 1000)
	env.mustOrder(t, user.ID, OrderLine{ProductID: gone.ID, Quantity: 1})
	env.db.deleteProduct(gone.ID)
	env.mustProduct(t, "Travel Mug", "kitchen", 2400)

	products, err := env.svc.RecommendProducts(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Travel Mug"}, productNames(products))
}

func TestRecommendHonoursLimit(t *testing.T) {
	env := newTestEnv(t, func(_ *Dependencies, o *Options) { o.RecommendationLimit = 1 })
	user := env.mustUser(t, "shopper")
	env.mustProduct(t, "Travel Mug", "kitchen", 2400)
	env.mustProduct(t, "City Sneaker", "footwear", 12900)

	products, err := env.svc.RecommendProducts(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestDemoScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.svc.Register(ctx, "demo@example.com", "demo", "password123")
	require.NoError(t, err)

	_, token, ttl, err := env.svc.Login(ctx, "demo", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, 15, ttl)

	product := env.mustProduct(t, "Trail Backpack", "outdoor", 7800)
	order := env.mustOrder(t, user.ID, OrderLine{ProductID: product.ID, Quantity: 2})
	assert.Equal(t, int64(15600), order.TotalCents)

	recommended, err := env.svc.RecommendProducts(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, recommended, 1)
	assert.Equal(t, product.ID, recommended[0].ID)
}

func TestRecommendZeroLimitMeansDefault(t *testing.T) {
	env := newTestEnv(t, func(_ *Dependencies, o *Options) { o.RecommendationLimit = 0 })
	user := env.mustUser(t, "shopper")
	for _, name := range []string{"A", "B", "C", "D"} {
		env.mustProduct(t, name, "misc", 100)
	}

	products, err := env.svc.RecommendProducts(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Len(t, products, defaultRecommendationLimit)
}
