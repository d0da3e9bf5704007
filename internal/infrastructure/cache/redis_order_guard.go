package cache

import (
	"context"
	"fmt"
	"time"

	appinv "github.com/fulfillment/stock-engine/internal/application/inventory"
	"github.com/redis/go-redis/v9"
)

const defaultGuardKeyPrefix = "stock:order:deducted:"

// RedisOrderGuard implements OrderDeductionGuard using Redis. Suitable
// for distributed deployments where several instances consume order
// status events and must share the deduction marks.
type RedisOrderGuard struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisOrderGuard creates a new Redis-backed order deduction guard.
// ttl bounds how long a deduction mark is kept; zero means no expiry.
func NewRedisOrderGuard(cfg RedisConfig, ttl time.Duration) (*RedisOrderGuard, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisOrderGuard{
		client:    client,
		keyPrefix: defaultGuardKeyPrefix,
		ttl:       ttl,
	}, nil
}

// NewRedisOrderGuardWithClient creates a guard with an existing Redis
// client. Useful for testing or when sharing a client across components.
func NewRedisOrderGuardWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisOrderGuard {
	if keyPrefix == "" {
		keyPrefix = defaultGuardKeyPrefix
	}
	return &RedisOrderGuard{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// IsDeducted reports whether stock was already deducted for the order
func (g *RedisOrderGuard) IsDeducted(ctx context.Context, orderID string) (bool, error) {
	exists, err := g.client.Exists(ctx, g.keyPrefix+orderID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check deduction mark: %w", err)
	}
	return exists > 0, nil
}

// MarkDeducted records that stock was deducted for the order
func (g *RedisOrderGuard) MarkDeducted(ctx context.Context, orderID string) error {
	if err := g.client.Set(ctx, g.keyPrefix+orderID, "1", g.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set deduction mark: %w", err)
	}
	return nil
}

// ClearDeducted removes the deduction mark after stock is added back
func (g *RedisOrderGuard) ClearDeducted(ctx context.Context, orderID string) error {
	if err := g.client.Del(ctx, g.keyPrefix+orderID).Err(); err != nil {
		return fmt.Errorf("failed to clear deduction mark: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (g *RedisOrderGuard) Close() error {
	return g.client.Close()
}

// Ensure RedisOrderGuard implements OrderDeductionGuard
var _ appinv.OrderDeductionGuard = (*RedisOrderGuard)(nil)
