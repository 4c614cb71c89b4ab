package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradingPair is reference data for a tradable market, owned by the backend.
type TradingPair struct {
	ID         string          `json:"id"`
	Symbol     string          `json:"symbol"` // slash form, e.g. "BTC/USDT"
	BaseAsset  string          `json:"base_asset"`
	QuoteAsset string          `json:"quote_asset"`
	MinPrice   decimal.Decimal `json:"min_price"`
	MaxPrice   decimal.Decimal `json:"max_price"`
	MinQty     decimal.Decimal `json:"min_qty"`
	MaxQty     decimal.Decimal `json:"max_qty"`
	Status     string          `json:"status"` // active, inactive
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Ticker is the 24h rolling summary for one symbol. It is replaced wholesale
// on each successful poll, never partially updated.
type Ticker struct {
	Symbol    string          `json:"symbol"`
	LastPrice decimal.Decimal `json:"last_price"`
	Change24h decimal.Decimal `json:"change_24h"`
	High24h   decimal.Decimal `json:"high_24h"`
	Low24h    decimal.Decimal `json:"low_24h"`
	Volume24h decimal.Decimal `json:"volume_24h"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// OrderBookItem is one price level. A level with zero quantity is absent from
// the book, never carried as a zero-valued entry.
type OrderBookItem struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

// OrderBook is full depth for one symbol: bids sorted by price descending,
// asks ascending. Both REST snapshots and push updates carry the whole book.
type OrderBook struct {
	Symbol string          `json:"symbol"`
	Bids   []OrderBookItem `json:"bids"`
	Asks   []OrderBookItem `json:"asks"`
}

// Trade is a single fill on the public tape.
type Trade struct {
	ID          string          `json:"id"`
	Symbol      string          `json:"symbol"`
	BuyOrderID  string          `json:"buy_order_id,omitempty"`
	SellOrderID string          `json:"sell_order_id,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    decimal.Decimal `json:"quantity"`
	Side        string          `json:"side,omitempty"` // taker side when the feed provides it
	CreatedAt   time.Time       `json:"created_at"`
}

// Kline is one OHLCV candle.
type Kline struct {
	ID       string          `json:"id"`
	Symbol   string          `json:"symbol"`
	Interval string          `json:"interval"` // 15s, 30s, 1m, 5m, 15m, 1h, 4h, 1d
	OpenTime int64           `json:"open_time"`
	Open     decimal.Decimal `json:"open"`
	High     decimal.Decimal `json:"high"`
	Low      decimal.Decimal `json:"low"`
	Close    decimal.Decimal `json:"close"`
	Volume   decimal.Decimal `json:"volume"`
}
