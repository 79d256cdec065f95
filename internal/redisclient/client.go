package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// releaseLockScript deletes the lock only if it still holds our token, so a
// lock that expired and was taken by another caller is left alone.
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Client struct {
	rdb            *redis.Client
	idempotencyTTL time.Duration
}

// NewClient connects to Redis and pings it
func NewClient(addr, password string, db int, idempotencyTTL time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return New(rdb, idempotencyTTL), nil
}

// New wraps an existing client
func New(rdb *redis.Client, idempotencyTTL time.Duration) *Client {
	return &Client{rdb: rdb, idempotencyTTL: idempotencyTTL}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// AcquireLock takes the lock named lockKey for at most ttl. It returns a
// token for ReleaseLock, or ok=false when someone else holds the lock.
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (token string, ok bool, err error) {
	token = uuid.NewString()
	ok, err = c.rdb.SetNX(ctx, lockName(lockKey), token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquire lock %s: %w", lockKey, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// ReleaseLock releases a lock taken with AcquireLock
func (c *Client) ReleaseLock(ctx context.Context, lockKey, token string) error {
	if err := releaseLockScript.Run(ctx, c.rdb, []string{lockName(lockKey)}, token).Err(); err != nil {
		return fmt.Errorf("release lock %s: %w", lockKey, err)
	}
	return nil
}

// LookupOrder returns the order id stored under an idempotency key
func (c *Client) LookupOrder(ctx context.Context, key string) (uuid.UUID, bool, error) {
	val, err := c.rdb.Get(ctx, idempotencyName(key)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("lookup idempotency key: %w", err)
	}

	orderID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("corrupt idempotency entry %q: %w", key, err)
	}
	return orderID, true, nil
}

// RememberOrder stores orderID under key. An existing entry is kept.
func (c *Client) RememberOrder(ctx context.Context, key string, orderID uuid.UUID) error {
	if err := c.rdb.SetNX(ctx, idempotencyName(key), orderID.String(), c.idempotencyTTL).Err(); err != nil {
		return fmt.Errorf("store idempotency key: %w", err)
	}
	return nil
}

func lockName(key string) string {
	return fmt.Sprintf("lock:%s", key)
}

func idempotencyName(key string) string {
	return fmt.Sprintf("idempotency:%s", key)
}
