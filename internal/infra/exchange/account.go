package exchange

import (
	"context"
	"net/http"
	"net/url"

	"github.com/haodong0616/velocity-client/internal/domain"
)

// Authenticated order and balance surface.

// CreateOrder submits a new order.
func (c *Client) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	var order domain.Order
	err := c.doRequest(ctx, "create_order", http.MethodPost, "/orders", nil, req, &order)
	if err != nil {
		return nil, err
	}
	c.logger.Info("order placed",
		"id", order.ID, "symbol", order.Symbol, "side", order.Side)
	return &order, nil
}

// GetOrders lists the user's orders; symbol and status filters are optional.
func (c *Client) GetOrders(ctx context.Context, symbol, status string) ([]domain.Order, error) {
	query := url.Values{}
	if symbol != "" {
		query.Set("symbol", symbol)
	}
	if status != "" {
		query.Set("status", status)
	}
	var orders []domain.Order
	err := c.doRequest(ctx, "get_orders", http.MethodGet, "/orders", query, nil, &orders)
	return orders, err
}

// GetOrder fetches one order by id.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order
	err := c.doRequest(ctx, "get_order", http.MethodGet, "/orders/"+orderID, nil, nil, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// CancelOrder cancels one order and returns its post-cancel state.
func (c *Client) CancelOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order
	err := c.doRequest(ctx, "cancel_order", http.MethodDelete, "/orders/"+orderID, nil, nil, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetBalances fetches the full per-asset balance snapshot.
func (c *Client) GetBalances(ctx context.Context) ([]domain.Balance, error) {
	var balances []domain.Balance
	err := c.doRequest(ctx, "get_balances", http.MethodGet, "/balances", nil, nil, &balances)
	return balances, err
}
