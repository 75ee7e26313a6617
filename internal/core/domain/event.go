package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartEventType string

const (
	EventItemAdded   CartEventType = "cart.item_added"
	EventItemUpdated CartEventType = "cart.item_updated"
	EventItemRemoved CartEventType = "cart.item_removed"
	EventCartCleared CartEventType = "cart.cleared"
)

type CartEvent struct {
	Type       CartEventType
	CartID     string
	UserID     string
	ProductID  string
	Quantity   int
	UnitPrice  decimal.Decimal
	OccurredAt time.Time
}
