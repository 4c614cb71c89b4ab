package event

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/haodong0616/velocity-client/internal/domain"
)

// Kind identifies a push stream. The set is closed; frames with any other
// type are dropped by Decode.
type Kind string

const (
	KindOrderBook Kind = "orderbook"
	KindTrade     Kind = "trade"
	KindTicker    Kind = "ticker"
)

// Event is one decoded push frame.
type Event interface {
	Kind() Kind
	// MarketSymbol is the slash-form symbol the event belongs to. Listeners
	// only act when it matches their subscription.
	MarketSymbol() string
}

// OrderBookEvent carries a full-depth book replacement for one symbol.
type OrderBookEvent struct {
	Book domain.OrderBook
}

func (e *OrderBookEvent) Kind() Kind           { return KindOrderBook }
func (e *OrderBookEvent) MarketSymbol() string { return e.Book.Symbol }

// TradeEvent carries one new tape entry.
type TradeEvent struct {
	Trade domain.Trade
}

func (e *TradeEvent) Kind() Kind           { return KindTrade }
func (e *TradeEvent) MarketSymbol() string { return e.Trade.Symbol }

// TickerEvent carries a ticker refresh pushed by the backend.
type TickerEvent struct {
	Ticker domain.Ticker
}

func (e *TickerEvent) Kind() Kind           { return KindTicker }
func (e *TickerEvent) MarketSymbol() string { return e.Ticker.Symbol }

// envelope is the wire frame: {"type": "...", "data": {...}}.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// wireTrade tolerates both tape shapes the backend emits: persisted trades
// carry id/created_at, simulator pushes carry a unix "time" field.
type wireTrade struct {
	ID        json.Number     `json:"id"`
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Quantity  decimal.Decimal `json:"quantity"`
	Side      string          `json:"side"`
	Time      int64           `json:"time"`
	CreatedAt time.Time       `json:"created_at"`
}

// Decode parses a raw frame into a typed event. Unknown frame types are not
// an error; Decode returns (nil, nil) and the frame is ignored.
func Decode(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}

	switch Kind(env.Type) {
	case KindOrderBook:
		var book domain.OrderBook
		if err := json.Unmarshal(env.Data, &book); err != nil {
			return nil, err
		}
		return &OrderBookEvent{Book: book}, nil

	case KindTrade:
		var wt wireTrade
		if err := json.Unmarshal(env.Data, &wt); err != nil {
			return nil, err
		}
		trade := domain.Trade{
			ID:        wt.ID.String(),
			Symbol:    wt.Symbol,
			Price:     wt.Price,
			Quantity:  wt.Quantity,
			Side:      wt.Side,
			CreatedAt: wt.CreatedAt,
		}
		if trade.CreatedAt.IsZero() && wt.Time > 0 {
			trade.CreatedAt = time.Unix(wt.Time, 0)
		}
		return &TradeEvent{Trade: trade}, nil

	case KindTicker:
		var ticker domain.Ticker
		if err := json.Unmarshal(env.Data, &ticker); err != nil {
			return nil, err
		}
		return &TickerEvent{Ticker: ticker}, nil
	}

	return nil, nil
}
