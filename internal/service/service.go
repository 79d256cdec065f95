package service

import (
	"context"
	"time"

	"commerce-service/internal/models"
	"commerce-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserRepository is the user storage the service needs
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// ProductRepository is the catalog storage the service needs
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
	ListByCategory(ctx context.Context, category string) ([]models.Product, error)
}

// OrderRepository is the order storage the service needs. Create must write
// the order and its items atomically.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order, items []models.OrderItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
}

// TokenIssuer creates session tokens at login
type TokenIssuer interface {
	Issue(userID uuid.UUID) (string, time.Time, error)
	TTL() time.Duration
}

// Locker serializes signups for the same username or email
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	ReleaseLock(ctx context.Context, key, token string) error
}

// IdempotencyStore remembers which order a request key produced
type IdempotencyStore interface {
	LookupOrder(ctx context.Context, key string) (uuid.UUID, bool, error)
	RememberOrder(ctx context.Context, key string, orderID uuid.UUID) error
}

// EventPublisher publishes domain events after successful writes
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, event *models.UserRegisteredEvent) error
	PublishProductCreated(ctx context.Context, event *models.ProductCreatedEvent) error
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
}

// Dependencies are the collaborators of CommerceService. Locker, Idempotency
// and Publisher are optional and may be left nil.
type Dependencies struct {
	Users       UserRepository
	Products    ProductRepository
	Orders      OrderRepository
	Tokens      TokenIssuer
	Locker      Locker
	Idempotency IdempotencyStore
	Publisher   EventPublisher
	Logger      *zap.Logger
}

// Options tune CommerceService. Zero values pick the defaults.
type Options struct {
	// RecommendationLimit <= 0 means the default of 3, not an empty result.
	RecommendationLimit int
	Currency            string
	SignupLockTTL       time.Duration
	Now                 func() time.Time
}

const (
	defaultRecommendationLimit = 3
	defaultSignupLockTTL       = 10 * time.Second
)

// CommerceService implements signup, login, the catalog, order placement
// and recommendations. It holds no mutable state of its own and is safe for
// concurrent use.
type CommerceService struct {
	users       UserRepository
	products    ProductRepository
	orders      OrderRepository
	tokens      TokenIssuer
	locker      Locker
	idempotency IdempotencyStore
	publisher   EventPublisher
	logger      *zap.Logger

	recommendationLimit int
	currency            string
	signupLockTTL       time.Duration
	now                 func() time.Time
}

// NewCommerceService creates a new commerce service
func NewCommerceService(deps Dependencies, opts Options) *CommerceService {
	s := &CommerceService{
		users:       deps.Users,
		products:    deps.Products,
		orders:      deps.Orders,
		tokens:      deps.Tokens,
		locker:      deps.Locker,
		idempotency: deps.Idempotency,
		publisher:   deps.Publisher,
		logger:      deps.Logger,

		recommendationLimit: opts.RecommendationLimit,
		currency:            opts.Currency,
		signupLockTTL:       opts.SignupLockTTL,
		now:                 opts.Now,
	}

	if s.logger == nil {
		s.logger = util.GetLogger()
	}
	if s.recommendationLimit <= 0 {
		s.recommendationLimit = defaultRecommendationLimit
	}
	if s.currency == "" {
		s.currency = models.DefaultCurrency
	}
	if s.signupLockTTL <= 0 {
		s.signupLockTTL = defaultSignupLockTTL
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}
