// Package events fans cart events out to in-process subscribers.
//
// Synchronous subscribers run in registration order on the publishing
// goroutine, after the bus has collected them, so concurrent publishers never
// wait on each other's subscribers. Asynchronous subscribers run on a bounded worker pool; when the
// pool is saturated the delivery is dropped and logged. A subscriber error or
// panic is logged and never reaches the publisher or the other subscribers.
package events

import (
	"context"
	"sync"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
)

const cartTopic = "cart:event"

const (
	defaultWorkers        = 16
	defaultMaxSubscribers = 32
	releaseTimeout        = 5 * time.Second
)

var ErrTooManySubscribers = errors.New("too many event subscribers")

type Handler func(ctx context.Context, event domain.CartEvent) error

// delivery is one subscriber call collected during a publish.
type delivery func()

type Options struct {
	Workers        int
	MaxSubscribers int
}

type Bus struct {
	bus  evbus.Bus
	pool *ants.Pool
	log  *zap.Logger

	maxSubscribers int

	mu          sync.Mutex
	subscribers []string

	closeMu sync.RWMutex
	closed  bool
	pending sync.WaitGroup
}

func NewBus(opts Options, log *zap.Logger) (*Bus, error) {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.MaxSubscribers <= 0 {
		opts.MaxSubscribers = defaultMaxSubscribers
	}
	if log == nil {
		log = zap.NewNop()
	}

	pool, err := ants.NewPool(opts.Workers,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p any) {
			log.Error("event worker panicked", zap.Any("panic", p))
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create event worker pool")
	}

	return &Bus{
		bus:            evbus.New(),
		pool:           pool,
		log:            log.Named("events"),
		maxSubscribers: opts.MaxSubscribers,
	}, nil
}

// Subscribe registers a handler invoked synchronously on Publish.
func (b *Bus) Subscribe(name string, h Handler) error {
	return b.subscribe(name, func(ctx context.Context, event domain.CartEvent, out *[]delivery) {
		*out = append(*out, func() { b.deliver(ctx, name, h, event) })
	})
}

// SubscribeAsync registers a handler invoked on the worker pool.
func (b *Bus) SubscribeAsync(name string, h Handler) error {
	return b.subscribe(name, func(ctx context.Context, event domain.CartEvent, out *[]delivery) {
		*out = append(*out, func() { b.dispatch(ctx, name, h, event) })
	})
}

func (b *Bus) subscribe(name string, fn func(context.Context, domain.CartEvent, *[]delivery)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.subscribers) >= b.maxSubscribers {
		return errors.Wrapf(ErrTooManySubscribers, "subscribe %s", name)
	}
	if err := b.bus.Subscribe(cartTopic, fn); err != nil {
		return errors.Wrapf(err, "subscribe %s", name)
	}
	b.subscribers = append(b.subscribers, name)
	return nil
}

func (b *Bus) Subscribers() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.subscribers...)
}

func (b *Bus) Publish(ctx context.Context, event domain.CartEvent) {
	b.closeMu.RLock()
	defer b.closeMu.RUnlock()

	if b.closed {
		b.log.Warn("event bus closed, dropping event",
			zap.String("type", string(event.Type)), zap.String("cart_id", event.CartID))
		return
	}

	// EventBus holds its lock while callbacks run, so callbacks only collect.
	var deliveries []delivery
	b.bus.Publish(cartTopic, ctx, event, &deliveries)
	for _, d := range deliveries {
		d()
	}
}

func (b *Bus) dispatch(ctx context.Context, name string, h Handler, event domain.CartEvent) {
	// the request context ends before the worker runs
	ctx = context.WithoutCancel(ctx)

	b.pending.Add(1)
	err := b.pool.Submit(func() {
		defer b.pending.Done()
		b.deliver(ctx, name, h, event)
	})
	if err != nil {
		b.pending.Done()
		b.log.Warn("event dropped",
			zap.String("subscriber", name),
			zap.String("type", string(event.Type)),
			zap.String("cart_id", event.CartID),
			zap.Error(err))
	}
}

func (b *Bus) deliver(ctx context.Context, name string, h Handler, event domain.CartEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event subscriber panicked",
				zap.String("subscriber", name),
				zap.String("type", string(event.Type)),
				zap.Any("panic", r))
		}
	}()

	if err := h(ctx, event); err != nil {
		b.log.Error("event subscriber failed",
			zap.String("subscriber", name),
			zap.String("type", string(event.Type)),
			zap.String("cart_id", event.CartID),
			zap.Error(err))
	}
}

// Close stops accepting events, waits for queued async deliveries, then
// releases the pool and waits for its workers and timers to exit.
func (b *Bus) Close() {
	b.closeMu.Lock()
	if b.closed {
		b.closeMu.Unlock()
		return
	}
	b.closed = true
	b.closeMu.Unlock()

	b.pending.Wait()
	if err := b.pool.ReleaseTimeout(releaseTimeout); err != nil {
		b.log.Warn("event worker pool release", zap.Error(err))
	}
}
