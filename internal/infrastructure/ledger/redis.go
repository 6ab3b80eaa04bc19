package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/johnquangdev/meeting-digest/internal/domain/entities"
	"github.com/johnquangdev/meeting-digest/pkg/config"
)

const ledgerKeyPrefix = "digest:delivery:"

// RedisLedger is a DeliveryLedger backed by Redis, for deployments that
// run more than one instance behind the webhook or want dedup state to
// survive restarts. SET NX gives the same atomic check-and-reserve
// semantics as the in-memory ledger.
type RedisLedger struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// NewRedisLedger creates a Redis-backed ledger whose entries expire after ttl.
func NewRedisLedger(client *redis.Client, ttl time.Duration) *RedisLedger {
	return &RedisLedger{client: client, ttl: ttl}
}

// Reserve marks the event id pending if it has not been seen yet.
func (l *RedisLedger) Reserve(ctx context.Context, eventID string) (bool, error) {
	ok, err := l.client.SetNX(ctx, ledgerKeyPrefix+eventID, string(entities.OutcomePending), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve event: %w", err)
	}
	return ok, nil
}

// Record updates the reservation to its terminal outcome.
func (l *RedisLedger) Record(ctx context.Context, eventID string, outcome entities.DeliveryOutcome) error {
	if err := l.client.Set(ctx, ledgerKeyPrefix+eventID, string(outcome), l.ttl).Err(); err != nil {
		return fmt.Errorf("failed to record outcome: %w", err)
	}
	return nil
}

// Get returns the record for an event id, or nil when absent or expired.
func (l *RedisLedger) Get(ctx context.Context, eventID string) (*entities.DeliveryRecord, error) {
	val, err := l.client.Get(ctx, ledgerKeyPrefix+eventID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger entry: %w", err)
	}
	return &entities.DeliveryRecord{
		EventID: eventID,
		Outcome: entities.DeliveryOutcome(val),
	}, nil
}
