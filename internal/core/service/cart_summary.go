package service

import (
	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
)

// CartSummaryBuilder accumulates summary lines and a running total.
type CartSummaryBuilder struct {
	cartID string
	lines  []domain.SummaryLine
	total  decimal.Decimal
}

func NewCartSummaryBuilder() *CartSummaryBuilder {
	return &CartSummaryBuilder{total: decimal.Zero}
}

func (b *CartSummaryBuilder) SetCartID(id string) *CartSummaryBuilder {
	b.cartID = id
	return b
}

func (b *CartSummaryBuilder) AddProduct(product domain.Product, quantity int) *CartSummaryBuilder {
	b.lines = append(b.lines, domain.SummaryLine{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Quantity:  quantity,
	})
	b.total = b.total.Add(product.Price.Mul(decimal.NewFromInt(int64(quantity))))
	return b
}

func (b *CartSummaryBuilder) Build() domain.CartSummary {
	lines := make([]domain.SummaryLine, len(b.lines))
	copy(lines, b.lines)
	return domain.CartSummary{
		ID:       b.cartID,
		Products: lines,
		Total:    b.total,
	}
}
