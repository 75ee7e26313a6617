package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

var (
	ErrCartNotFound      = errors.WithMessage(domain.ErrNotFound, "cart not found")
	ErrItemNotFound      = errors.WithMessage(domain.ErrNotFound, "cart item not found")
	ErrInsufficientStock = errors.WithMessage(domain.ErrInvalidRequest, "insufficient stock")
	ErrInvalidQuantity   = errors.WithMessage(domain.ErrInvalidRequest, "quantity must be at least 1")
	ErrDuplicateRequest  = errors.WithMessage(domain.ErrConflict, "duplicate request")
)

type AddItemRequest struct {
	ProductID string
	Quantity  int
	// RequestID makes the add idempotent when an idempotency store is configured
	RequestID string
}

type CartService struct {
	carts       port.CartRepository
	products    port.ProductRepository
	users       port.UserRepository
	events      port.EventPublisher
	idempotency port.IdempotencyStore
	log         *zap.Logger
	now         func() time.Time
}

// NewCartService wires the cart core. idempotency may be nil.
func NewCartService(
	carts port.CartRepository,
	products port.ProductRepository,
	users port.UserRepository,
	events port.EventPublisher,
	idempotency port.IdempotencyStore,
	log *zap.Logger,
) *CartService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CartService{
		carts:       carts,
		products:    products,
		users:       users,
		events:      events,
		idempotency: idempotency,
		log:         log,
		now:         time.Now,
	}
}

func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.carts.GetActiveCart(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get active cart")
	}
	if cart == nil {
		return nil, ErrCartNotFound
	}
	return cart, nil
}

func (s *CartService) GetOrCreateCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.carts.GetOrCreateActiveCart(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get or create active cart")
	}
	return cart, nil
}

func (s *CartService) AddItem(ctx context.Context, userID string, req AddItemRequest) (*domain.Cart, error) {
	if req.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.products.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, errors.Wrap(err, "get product")
	}
	if product == nil || !product.Active {
		return nil, ErrProductNotFound
	}
	if !product.HasStock(req.Quantity) {
		return nil, ErrInsufficientStock
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get user")
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	idempotencyKey, err := s.claimRequest(ctx, userID, req.RequestID)
	if err != nil {
		return nil, err
	}

	cart, err := s.addItem(ctx, userID, *product, req.Quantity)
	if err != nil {
		s.releaseRequest(ctx, idempotencyKey)
		return nil, err
	}

	s.publish(ctx, domain.CartEvent{
		Type:      domain.EventItemAdded,
		CartID:    cart.ID,
		UserID:    userID,
		ProductID: product.ID,
		Quantity:  req.Quantity,
		UnitPrice: product.Price,
	})

	return cart, nil
}

// addItem writes the line into the user's active cart. When the cart is
// abandoned between lookup and write, it retries once on a fresh cart.
func (s *CartService) addItem(ctx context.Context, userID string, product domain.Product, quantity int) (*domain.Cart, error) {
	for attempt := 0; ; attempt++ {
		cart, err := s.GetOrCreateCart(ctx, userID)
		if err != nil {
			return nil, err
		}

		err = s.carts.AddItem(ctx, cart.ID, domain.CartItem{
			CartID:    cart.ID,
			ProductID: product.ID,
			Quantity:  quantity,
			UnitPrice: product.Price,
		})
		if errors.Is(err, domain.ErrNotFound) && attempt == 0 {
			s.log.Info("cart no longer active, retrying add", zap.String("cart_id", cart.ID))
			continue
		}
		if err != nil {
			return nil, inactive(err, "add cart item")
		}

		return s.GetCart(ctx, userID)
	}
}

// inactive maps a storage NotFound on a cart mutation to ErrCartNotFound.
func inactive(err error, op string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return ErrCartNotFound
	}
	return errors.Wrap(err, op)
}

// UpdateItemQuantity sets the line quantity. A quantity of zero or less removes the line.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if quantity <= 0 {
		return s.RemoveItem(ctx, userID, productID)
	}

	updated, err := s.carts.SetItemQuantity(ctx, cart.ID, productID, quantity)
	if err != nil {
		return nil, inactive(err, "set item quantity")
	}
	if !updated {
		return nil, ErrItemNotFound
	}

	s.publish(ctx, domain.CartEvent{
		Type:      domain.EventItemUpdated,
		CartID:    cart.ID,
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	})

	return s.GetCart(ctx, userID)
}

// RemoveItem deletes the line for productID. Removing an absent line is not an error.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	removed, err := s.carts.RemoveItem(ctx, cart.ID, productID)
	if err != nil {
		return nil, inactive(err, "remove cart item")
	}

	if removed {
		s.publish(ctx, domain.CartEvent{
			Type:      domain.EventItemRemoved,
			CartID:    cart.ID,
			UserID:    userID,
			ProductID: productID,
		})
	}

	return s.GetCart(ctx, userID)
}

func (s *CartService) ClearCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.carts.ClearItems(ctx, cart.ID); err != nil {
		return nil, inactive(err, "clear cart items")
	}

	s.publish(ctx, domain.CartEvent{
		Type:   domain.EventCartCleared,
		CartID: cart.ID,
		UserID: userID,
	})

	return s.GetCart(ctx, userID)
}

// BuildSummary flattens the user's active cart through the summary builder.
func (s *CartService) BuildSummary(ctx context.Context, userID string) (domain.CartSummary, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return domain.CartSummary{}, err
	}

	builder := NewCartSummaryBuilder().SetCartID(cart.ID)
	for _, item := range cart.Items {
		builder.AddProduct(item.Product, item.Quantity)
	}
	return builder.Build(), nil
}

// AbandonIdleCarts marks active carts untouched for longer than idle as abandoned.
func (s *CartService) AbandonIdleCarts(ctx context.Context, idle time.Duration) (int64, error) {
	n, err := s.carts.MarkAbandoned(ctx, s.now().Add(-idle))
	if err != nil {
		return 0, errors.Wrap(err, "mark abandoned carts")
	}
	return n, nil
}

func (s *CartService) claimRequest(ctx context.Context, userID, requestID string) (string, error) {
	if requestID == "" || s.idempotency == nil {
		return "", nil
	}

	key := fmt.Sprintf("idempotency:add-item:%s:%s", userID, requestID)
	ok, err := s.idempotency.SetIdempotency(ctx, key)
	if err != nil {
		return "", errors.Wrap(err, "idempotency check failed")
	}
	if !ok {
		return "", ErrDuplicateRequest
	}
	return key, nil
}

func (s *CartService) releaseRequest(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.idempotency.ReleaseIdempotency(ctx, key); err != nil {
		s.log.Warn("failed to release idempotency key", zap.String("key", key), zap.Error(err))
	}
}

func (s *CartService) publish(ctx context.Context, event domain.CartEvent) {
	if s.events == nil {
		return
	}
	event.OccurredAt = s.now()
	s.events.Publish(ctx, event)
}
