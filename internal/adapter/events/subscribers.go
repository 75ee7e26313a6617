package events

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const streamWriteTimeout = 3 * time.Second

// LogSubscriber writes every cart event to the log.
func LogSubscriber(log *zap.Logger) Handler {
	return func(ctx context.Context, event domain.CartEvent) error {
		log.Info("cart event",
			zap.String("type", string(event.Type)),
			zap.String("cart_id", event.CartID),
			zap.String("user_id", event.UserID),
			zap.String("product_id", event.ProductID),
			zap.Int("quantity", event.Quantity),
			zap.String("unit_price", event.UnitPrice.String()),
			zap.Time("occurred_at", event.OccurredAt),
		)
		return nil
	}
}

// StreamSubscriber appends every cart event to an external stream.
func StreamSubscriber(stream port.EventStream) Handler {
	return func(ctx context.Context, event domain.CartEvent) error {
		ctx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
		defer cancel()
		return stream.AppendEvent(ctx, event)
	}
}
