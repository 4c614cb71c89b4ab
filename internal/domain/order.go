package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a user order. The backend owns the record; the client holds a
// cached, eventually-consistent copy refreshed by polling. Terminal states
// are never revisited.
type Order struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Symbol    string          `json:"symbol"`
	OrderType string          `json:"order_type"` // limit, market
	Side      string          `json:"side"`       // buy, sell
	Price     decimal.Decimal `json:"price"`
	Quantity  decimal.Decimal `json:"quantity"`
	FilledQty decimal.Decimal `json:"filled_qty"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

const (
	SideBuy  = "buy"
	SideSell = "sell"

	OrderTypeLimit  = "limit"
	OrderTypeMarket = "market"

	OrderStatusPending          = "pending"
	OrderStatusPartial          = "partial"
	OrderStatusFilled           = "filled"
	OrderStatusCancelled        = "cancelled"
	OrderStatusPartialCancelled = "partial_cancelled"
)

// IsOpen reports whether the order can still trade or be cancelled.
func (o *Order) IsOpen() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusPartial
}

// IsTerminal reports whether the order reached a final state.
func (o *Order) IsTerminal() bool {
	switch o.Status {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusPartialCancelled:
		return true
	}
	return false
}
