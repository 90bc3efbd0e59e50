package payments

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const ledgerKeyPrefix = "webhook:payment:"

// Ledger remembers payments whose upgrade has been applied, so that
// re-deliveries can be acknowledged without another gateway round trip.
type Ledger interface {
	Seen(ctx context.Context, paymentID string) (bool, error)
	Record(ctx context.Context, paymentID string) error
}

type RedisLedger struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLedger(client *redis.Client, ttl time.Duration) *RedisLedger {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &RedisLedger{client: client, ttl: ttl}
}

func (l *RedisLedger) Seen(ctx context.Context, paymentID string) (bool, error) {
	n, err := l.client.Exists(ctx, ledgerKeyPrefix+paymentID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (l *RedisLedger) Record(ctx context.Context, paymentID string) error {
	return l.client.Set(ctx, ledgerKeyPrefix+paymentID, time.Now().UTC().Format(time.RFC3339), l.ttl).Err()
}
