package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/rl1809/storefront/internal/core/domain"
)

func TestCartSummaryBuilder(t *testing.T) {
	a := domain.Product{ID: "a", Name: "A", Price: decimal.RequireFromString("0.10")}
	b := domain.Product{ID: "b", Name: "B", Price: decimal.RequireFromString("0.20")}

	summary := NewCartSummaryBuilder().
		SetCartID("cart-1").
		AddProduct(a, 3).
		AddProduct(b, 1).
		Build()

	assert.Equal(t, "cart-1", summary.ID)
	assert.Len(t, summary.Products, 2)
	assert.Equal(t, "0.5", summary.Total.String())
	assert.Equal(t, 3, summary.Products[0].Quantity)
}

func TestCartSummaryBuilder_Empty(t *testing.T) {
	summary := NewCartSummaryBuilder().Build()
	assert.Empty(t, summary.Products)
	assert.True(t, summary.Total.IsZero())
}
