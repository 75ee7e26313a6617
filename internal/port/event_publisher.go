package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

// EventPublisher delivers cart events to subscribers. Delivery failures never
// surface to the publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.CartEvent)
}

// EventStream appends events to an external log.
type EventStream interface {
	AppendEvent(ctx context.Context, event domain.CartEvent) error
}
