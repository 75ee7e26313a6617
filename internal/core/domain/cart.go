package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartStatus string

const (
	CartStatusActive    CartStatus = "ACTIVO"
	CartStatusAbandoned CartStatus = "ABANDONADO"
	CartStatusConverted CartStatus = "CONVERTIDO"
)

type Cart struct {
	ID           string
	UserID       string
	Status       CartStatus
	Discount     decimal.NullDecimal
	ShippingType string
	Total        decimal.Decimal
	Items        []CartItem
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type CartItem struct {
	ID        string
	CartID    string
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal // captured when the line is first added
	Product   Product
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Subtotal is quantity times the captured unit price.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ItemsTotal sums the line subtotals. A persisted cart's Total must always equal it.
func (c Cart) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// FindItem returns the line for productID, if any.
func (c Cart) FindItem(productID string) (CartItem, bool) {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return CartItem{}, false
}

// CartSummary is the flattened view produced by the summary builder.
type CartSummary struct {
	ID       string
	Products []SummaryLine
	Total    decimal.Decimal
}

type SummaryLine struct {
	ProductID string
	Name      string
	Price     decimal.Decimal
	Quantity  int
}
