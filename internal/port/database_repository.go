package port

import (
	"context"
	"time"

	"github.com/rl1809/storefront/internal/core/domain"
)

// Lookups return (nil, nil) when the row does not exist.

type ProductRepository interface {
	// ListActiveProducts returns active products, newest first
	ListActiveProducts(ctx context.Context) ([]domain.Product, error)

	// ListActiveProductsByCategory returns active products of a category ordered by name
	ListActiveProductsByCategory(ctx context.Context, category string) ([]domain.Product, error)

	GetProduct(ctx context.Context, id string) (*domain.Product, error)

	// UpsertProductByName inserts the product unless one with the same name exists.
	// Reports whether a row was created.
	UpsertProductByName(ctx context.Context, product domain.Product) (bool, error)
}

type UserRepository interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)

	// UpsertUserByEmail inserts the user unless the email is taken and returns the stored row
	UpsertUserByEmail(ctx context.Context, user domain.User) (*domain.User, error)
}

// CartRepository mutations recompute the cart total inside the same transaction.
type CartRepository interface {
	GetActiveCart(ctx context.Context, userID string) (*domain.Cart, error)

	// GetOrCreateActiveCart is safe under concurrent callers for the same user
	GetOrCreateActiveCart(ctx context.Context, userID string) (*domain.Cart, error)

	// AddItem inserts the line or adds item.Quantity to the existing one (captured price kept)
	AddItem(ctx context.Context, cartID string, item domain.CartItem) error

	// SetItemQuantity reports false when the line does not exist
	SetItemQuantity(ctx context.Context, cartID, productID string, quantity int) (bool, error)

	// RemoveItem reports false when the line did not exist
	RemoveItem(ctx context.Context, cartID, productID string) (bool, error)

	ClearItems(ctx context.Context, cartID string) error

	// MarkAbandoned flags active carts not updated since idleSince
	MarkAbandoned(ctx context.Context, idleSince time.Time) (int64, error)
}
