package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
)

const recomputeTotal = `
	UPDATE carts
	SET total = (SELECT COALESCE(SUM(quantity * unit_price), 0) FROM cart_items WHERE cart_id = ?),
	    updated_at = ?
	WHERE id = ?`

func (a *SQLAdapter) GetActiveCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, nil
	}

	var (
		cart     domain.Cart
		shipping sql.NullString
	)
	err := a.db.QueryRowContext(ctx, a.dialect.bind(`
		SELECT id, user_id, status, discount, shipping_type, total, created_at, updated_at
		FROM carts WHERE user_id = ? AND status = ?`), userID, domain.CartStatusActive,
	).Scan(&cart.ID, &cart.UserID, &cart.Status, &cart.Discount, &shipping,
		&cart.Total, &cart.CreatedAt, &cart.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "query cart")
	}
	cart.ShippingType = shipping.String

	cart.Items, err = a.cartItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (a *SQLAdapter) cartItems(ctx context.Context, cartID string) ([]domain.CartItem, error) {
	rows, err := a.db.QueryContext(ctx, a.dialect.bind(`
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.unit_price, ci.created_at, ci.updated_at,
		       p.id, p.name, p.description, p.price, p.stock, p.category, p.image, p.active, p.created_at, p.updated_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = ?
		ORDER BY ci.created_at, ci.id`), cartID)
	if err != nil {
		return nil, errors.Wrap(err, "query cart items")
	}
	defer rows.Close()

	items := make([]domain.CartItem, 0)
	for rows.Next() {
		var (
			item        domain.CartItem
			description sql.NullString
			image       sql.NullString
		)
		err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.UnitPrice,
			&item.CreatedAt, &item.UpdatedAt,
			&item.Product.ID, &item.Product.Name, &description, &item.Product.Price, &item.Product.Stock,
			&item.Product.Category, &image, &item.Product.Active, &item.Product.CreatedAt, &item.Product.UpdatedAt)
		if err != nil {
			return nil, errors.Wrap(err, "scan cart item")
		}
		item.Product.Description = description.String
		item.Product.Image = image.String
		items = append(items, item)
	}
	return items, errors.Wrap(rows.Err(), "iterate cart items")
}

// GetOrCreateActiveCart inserts a cart when the user has none. A concurrent
// creator trips the unique active-cart index, in which case the winner's row is read back.
func (a *SQLAdapter) GetOrCreateActiveCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := a.GetActiveCart(ctx, userID)
	if err != nil || cart != nil {
		return cart, err
	}

	now := a.stamp()
	_, err = a.db.ExecContext(ctx, a.dialect.bind(`
		INSERT INTO carts (id, user_id, status, total, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		uuid.NewString(), userID, domain.CartStatusActive, decimal.Zero, now, now,
	)
	if err != nil && !a.dialect.uniqueViolation(err) {
		return nil, errors.Wrap(err, "insert cart")
	}

	cart, err = a.GetActiveCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, errors.Errorf("active cart for user %s vanished after insert", userID)
	}
	return cart, nil
}

// AddItem upserts on (cart_id, product_id). An existing line keeps its unit price.
func (a *SQLAdapter) AddItem(ctx context.Context, cartID string, item domain.CartItem) error {
	_, err := withTx(ctx, a.db, func(tx *sql.Tx) (struct{}, error) {
		if err := a.lockCart(ctx, tx, cartID); err != nil {
			return struct{}{}, err
		}

		now := a.stamp()
		_, err := tx.ExecContext(ctx, a.dialect.bind(a.dialect.upsertItem),
			uuid.NewString(), cartID, item.ProductID, item.Quantity, item.UnitPrice, now, now)
		if err != nil {
			return struct{}{}, errors.Wrap(err, "upsert cart item")
		}
		return struct{}{}, a.recompute(ctx, tx, cartID, now)
	})
	return err
}

func (a *SQLAdapter) SetItemQuantity(ctx context.Context, cartID, productID string, quantity int) (bool, error) {
	if _, err := uuid.Parse(productID); err != nil {
		return false, nil
	}

	return withTx(ctx, a.db, func(tx *sql.Tx) (bool, error) {
		if err := a.lockCart(ctx, tx, cartID); err != nil {
			return false, err
		}

		var itemID string
		err := tx.QueryRowContext(ctx, a.dialect.bind(`
			SELECT id FROM cart_items WHERE cart_id = ? AND product_id = ?`),
			cartID, productID).Scan(&itemID)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, errors.Wrap(err, "query cart item")
		}

		now := a.stamp()
		if _, err := tx.ExecContext(ctx, a.dialect.bind(`
			UPDATE cart_items SET quantity = ?, updated_at = ? WHERE id = ?`),
			quantity, now, itemID); err != nil {
			return false, errors.Wrap(err, "update cart item")
		}
		return true, a.recompute(ctx, tx, cartID, now)
	})
}

func (a *SQLAdapter) RemoveItem(ctx context.Context, cartID, productID string) (bool, error) {
	if _, err := uuid.Parse(productID); err != nil {
		return false, nil
	}

	return withTx(ctx, a.db, func(tx *sql.Tx) (bool, error) {
		if err := a.lockCart(ctx, tx, cartID); err != nil {
			return false, err
		}

		result, err := tx.ExecContext(ctx, a.dialect.bind(`
			DELETE FROM cart_items WHERE cart_id = ? AND product_id = ?`), cartID, productID)
		if err != nil {
			return false, errors.Wrap(err, "delete cart item")
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return false, errors.Wrap(err, "rows affected")
		}
		if rows == 0 {
			return false, nil
		}
		return true, a.recompute(ctx, tx, cartID, a.stamp())
	})
}

func (a *SQLAdapter) ClearItems(ctx context.Context, cartID string) error {
	_, err := withTx(ctx, a.db, func(tx *sql.Tx) (struct{}, error) {
		if err := a.lockCart(ctx, tx, cartID); err != nil {
			return struct{}{}, err
		}
		if _, err := tx.ExecContext(ctx, a.dialect.bind(`DELETE FROM cart_items WHERE cart_id = ?`), cartID); err != nil {
			return struct{}{}, errors.Wrap(err, "delete cart items")
		}
		return struct{}{}, a.recompute(ctx, tx, cartID, a.stamp())
	})
	return err
}

func (a *SQLAdapter) MarkAbandoned(ctx context.Context, idleSince time.Time) (int64, error) {
	result, err := a.db.ExecContext(ctx, a.dialect.bind(`
		UPDATE carts SET status = ?, updated_at = ?
		WHERE status = ? AND updated_at < ?`),
		domain.CartStatusAbandoned, a.stamp(), domain.CartStatusActive, idleSince.UTC(),
	)
	if err != nil {
		return 0, errors.Wrap(err, "mark abandoned carts")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "rows affected")
	}
	return n, nil
}

// lockCart takes the cart row lock first so every mutation of one cart
// acquires locks in the same order. Carts that are no longer active are
// reported as not found and never written.
func (a *SQLAdapter) lockCart(ctx context.Context, tx *sql.Tx, cartID string) error {
	var id string
	err := tx.QueryRowContext(ctx, a.dialect.bind(`
		SELECT id FROM carts WHERE id = ? AND status = ? FOR UPDATE`),
		cartID, domain.CartStatusActive).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return errors.WithMessagef(domain.ErrNotFound, "active cart %s", cartID)
	}
	return errors.Wrap(err, "lock cart")
}

func (a *SQLAdapter) recompute(ctx context.Context, tx *sql.Tx, cartID string, now time.Time) error {
	if _, err := tx.ExecContext(ctx, a.dialect.bind(recomputeTotal), cartID, now, cartID); err != nil {
		return errors.Wrap(err, "recompute cart total")
	}
	return nil
}
