package domain

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Category    string
	Image       string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the catalog invariants: price and stock are never negative.
func (p Product) Validate() error {
	if p.Name == "" {
		return errors.WithMessage(ErrInvalidRequest, "product name is empty")
	}
	if p.Price.IsNegative() {
		return errors.WithMessagef(ErrInvalidRequest, "product %q has negative price", p.Name)
	}
	if p.Stock < 0 {
		return errors.WithMessagef(ErrInvalidRequest, "product %q has negative stock", p.Name)
	}
	return nil
}

// HasStock reports whether quantity units can be taken from the current stock.
func (p Product) HasStock(quantity int) bool {
	return p.Stock >= quantity
}
