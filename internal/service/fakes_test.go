package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"commerce-service/internal/auth"
	"commerce-service/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memoryDB backs the repository fakes. Every write is applied whole or not
// at all, like the real store.
type memoryDB struct {
	mu       sync.Mutex
	users    map[uuid.UUID]models.User
	products map[uuid.UUID]models.Product
	orders   map[uuid.UUID]models.Order
	items    map[uuid.UUID][]models.OrderItem

	userCreateErr    error
	orderCreateErr   error
	orderCreateDelay time.Duration
}

func newMemoryDB() *memoryDB {
	return &memoryDB{
		users:    make(map[uuid.UUID]models.User),
		products: make(map[uuid.UUID]models.Product),
		orders:   make(map[uuid.UUID]models.Order),
		items:    make(map[uuid.UUID][]models.OrderItem),
	}
}

func (m *memoryDB) setPrice(id uuid.UUID, cents int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.products[id]
	p.PriceCents = cents
	m.products[id] = p
}

func (m *memoryDB) deleteProduct(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, id)
}

func (m *memoryDB) orderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

type memoryUsers struct{ db *memoryDB }

func (r memoryUsers) Create(ctx context.Context, user *models.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.userCreateErr != nil {
		return r.db.userCreateErr
	}
	r.db.users[user.ID] = *user
	return nil
}

func (r memoryUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if u, ok := r.db.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (r memoryUsers) find(match func(models.User) bool) *models.User {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if match(u) {
			found := u
			return &found
		}
	}
	return nil
}

func (r memoryUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Username == username }), nil
}

func (r memoryUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Email == email }), nil
}

type memoryProducts struct{ db *memoryDB }

func (r memoryProducts) Create(ctx context.Context, product *models.Product) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.products[product.ID] = *product
	return nil
}

func (r memoryProducts) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if p, ok := r.db.products[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (r memoryProducts) List(ctx context.Context) ([]models.Product, error) {
	return r.filter(func(models.Product) bool { return true }), nil
}

func (r memoryProducts) ListByCategory(ctx context.Context, category string) ([]models.Product, error) {
	return r.filter(func(p models.Product) bool { return p.Category == category }), nil
}

func (r memoryProducts) filter(match func(models.Product) bool) []models.Product {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Product
	for _, p := range r.db.products {
		if match(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

type memoryOrders struct{ db *memoryDB }

func (r memoryOrders) Create(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	time.Sleep(r.db.orderCreateDelay)
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.orderCreateErr != nil {
		return r.db.orderCreateErr
	}
	r.db.orders[order.ID] = *order
	r.db.items[order.ID] = append([]models.OrderItem(nil), items...)
	return nil
}

func (r memoryOrders) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if o, ok := r.db.orders[id]; ok {
		return &o, nil
	}
	return nil, nil
}

func (r memoryOrders) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Order
	for _, o := range r.db.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memoryOrders) ListItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return append([]models.OrderItem(nil), r.db.items[orderID]...), nil
}

// fakeClock ticks one second per call so created_at values are distinct.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type memoryLocker struct {
	mu    sync.Mutex
	held  map[string]string
	err   error
	calls int
}

func newMemoryLocker() *memoryLocker {
	return &memoryLocker{held: make(map[string]string)}
}

func (l *memoryLocker) AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.err != nil {
		return "", false, l.err
	}
	if _, ok := l.held[key]; ok {
		return "", false, nil
	}
	token := uuid.NewString()
	l.held[key] = token
	return token, true, nil
}

func (l *memoryLocker) ReleaseLock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}

type memoryIdempotency struct {
	mu   sync.Mutex
	keys map[string]uuid.UUID
}

func (m *memoryIdempotency) LookupOrder(ctx context.Context, key string) (uuid.UUID, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.keys[key]
	return id, ok, nil
}

func (m *memoryIdempotency) RememberOrder(ctx context.Context, key string, orderID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[key]; !ok {
		m.keys[key] = orderID
	}
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (p *recordingPublisher) record(eventType string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return p.err
}

func (p *recordingPublisher) PublishUserRegistered(ctx context.Context, event *models.UserRegisteredEvent) error {
	return p.record(event.EventType)
}

func (p *recordingPublisher) PublishProductCreated(ctx context.Context, event *models.ProductCreatedEvent) error {
	return p.record(event.EventType)
}

func (p *recordingPublisher) PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	return p.record(event.EventType)
}

type testEnv struct {
	svc *CommerceService
	db  *memoryDB
}

func newTestEnv(t *testing.T, configure ...func(*Dependencies, *Options)) *testEnv {
	t.Helper()

	tokens, err := auth.NewTokenIssuer("test-secret", 15*time.Minute)
	require.NoError(t, err)

	db := newMemoryDB()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}

	deps := Dependencies{
		Users:    memoryUsers{db},
		Products: memoryProducts{db},
		Orders:   memoryOrders{db},
		Tokens:   tokens,
		Logger:   zap.NewNop(),
	}
	opts := Options{RecommendationLimit: 3, Now: clock.Now}
	for _, fn := range configure {
		fn(&deps, &opts)
	}

	return &testEnv{svc: NewCommerceService(deps, opts), db: db}
}

func (e *testEnv) mustUser(t *testing.T, username string) *models.User {
	t.Helper()
	user, err := e.svc.Register(context.Background(), username+"@example.com", username, "password123")
	require.NoError(t, err)
	return user
}

func (e *testEnv) mustProduct(t *testing.T, name, category string, cents int64) *models.Product {
	t.Helper()
	product, err := e.svc.CreateProduct(context.Background(), CreateProductParams{
		Name:        name,
		Description: name + " description",
		Category:    category,
		PriceCents:  cents,
		Currency:    "USD",
	})
	require.NoError(t, err)
	return product
}

func (e *testEnv) mustOrder(t *testing.T, userID uuid.UUID, lines ...OrderLine) *models.Order {
	t.Helper()
	order, _, err := e.svc.CreateOrder(context.Background(), userID, lines)
	require.NoError(t, err)
	return order
}
