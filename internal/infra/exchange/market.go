package exchange

import (
	"context"
	"net/http"
	"net/url"

	"github.com/haodong0616/velocity-client/internal/domain"
)

// Market data surface. Symbols are passed in slash form and encoded for the
// URL path here.

// GetTradingPairs fetches all listed trading pairs.
func (c *Client) GetTradingPairs(ctx context.Context) ([]domain.TradingPair, error) {
	var pairs []domain.TradingPair
	err := c.doRequest(ctx, "get_pairs", http.MethodGet, "/market/pairs", nil, nil, &pairs)
	return pairs, err
}

// GetTicker fetches the 24h ticker for one symbol.
func (c *Client) GetTicker(ctx context.Context, symbol string) (*domain.Ticker, error) {
	var ticker domain.Ticker
	err := c.doRequest(ctx, "get_ticker", http.MethodGet, "/market/ticker/"+domain.EncodeSymbol(symbol), nil, nil, &ticker)
	if err != nil {
		return nil, err
	}
	return &ticker, nil
}

// GetAllTickers fetches tickers for every symbol.
func (c *Client) GetAllTickers(ctx context.Context) ([]domain.Ticker, error) {
	var tickers []domain.Ticker
	err := c.doRequest(ctx, "get_tickers", http.MethodGet, "/market/tickers", nil, nil, &tickers)
	return tickers, err
}

// GetOrderBook fetches the full-depth book snapshot for one symbol.
func (c *Client) GetOrderBook(ctx context.Context, symbol string) (*domain.OrderBook, error) {
	var book domain.OrderBook
	err := c.doRequest(ctx, "get_orderbook", http.MethodGet, "/market/orderbook/"+domain.EncodeSymbol(symbol), nil, nil, &book)
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetRecentTrades fetches the recent public tape for one symbol.
func (c *Client) GetRecentTrades(ctx context.Context, symbol string) ([]domain.Trade, error) {
	var trades []domain.Trade
	err := c.doRequest(ctx, "get_trades", http.MethodGet, "/market/trades/"+domain.EncodeSymbol(symbol), nil, nil, &trades)
	return trades, err
}

// GetKlines fetches candles for one symbol and interval.
func (c *Client) GetKlines(ctx context.Context, symbol, interval string) ([]domain.Kline, error) {
	query := url.Values{}
	query.Set("interval", interval)
	var klines []domain.Kline
	err := c.doRequest(ctx, "get_klines", http.MethodGet, "/market/klines/"+domain.EncodeSymbol(symbol), query, nil, &klines)
	return klines, err
}
