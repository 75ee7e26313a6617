package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/storefront/internal/core/domain"
)

const (
	defaultIdempotencyTTL = 24 * time.Hour
	defaultEventStream    = "storefront:cart-events"
)

type RedisOptions struct {
	IdempotencyTTL time.Duration
	EventStream    string
	// StreamMaxLen caps the stream approximately. Zero keeps every entry.
	StreamMaxLen int64
}

type RedisAdapter struct {
	client *redis.Client
	opts   RedisOptions
}

func NewRedisAdapter(client *redis.Client, opts RedisOptions) *RedisAdapter {
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = defaultIdempotencyTTL
	}
	if opts.EventStream == "" {
		opts.EventStream = defaultEventStream
	}
	return &RedisAdapter{client: client, opts: opts}
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, 1, r.opts.IdempotencyTTL).Result()
	if err != nil {
		return false, errors.Wrap(err, "setnx idempotency key")
	}

	return ok, nil
}

func (r *RedisAdapter) ReleaseIdempotency(ctx context.Context, key string) error {
	return errors.Wrap(r.client.Del(ctx, key).Err(), "del idempotency key")
}

// AppendEvent writes the event as a flat entry on the cart event stream.
func (r *RedisAdapter) AppendEvent(ctx context.Context, event domain.CartEvent) error {
	args := &redis.XAddArgs{
		Stream: r.opts.EventStream,
		Values: map[string]any{
			"type":        string(event.Type),
			"cart_id":     event.CartID,
			"user_id":     event.UserID,
			"product_id":  event.ProductID,
			"quantity":    event.Quantity,
			"unit_price":  event.UnitPrice.String(),
			"occurred_at": event.OccurredAt.UTC().Format(time.RFC3339Nano),
		},
	}
	if r.opts.StreamMaxLen > 0 {
		args.MaxLen = r.opts.StreamMaxLen
		args.Approx = true
	}

	return errors.Wrap(r.client.XAdd(ctx, args).Err(), "xadd cart event")
}

func (r *RedisAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
