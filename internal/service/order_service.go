package service

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/haodong0616/velocity-client/internal/domain"
	"github.com/haodong0616/velocity-client/internal/infra"
)

// OrderService validates, submits and tracks user orders. The backend's
// order record is authoritative: the client never infers a transition
// locally, it only re-fetches. The order and balance caches are owned by the
// poll loop; user actions request a refresh instead of patching them.
type OrderService struct {
	api          domain.OrderAPI
	guard        *Session
	market       *MarketService
	pollInterval time.Duration
	logger       *slog.Logger

	mu       sync.RWMutex
	symbol   string
	orders   map[string]domain.Order
	balances *domain.BalanceBook

	refreshCh chan struct{}
}

// NewOrderService creates an order coordinator for one active symbol.
func NewOrderService(api domain.OrderAPI, guard *Session, market *MarketService, symbol string, pollInterval time.Duration) *OrderService {
	return &OrderService{
		api:          api,
		guard:        guard,
		market:       market,
		pollInterval: pollInterval,
		logger:       slog.Default().With("module", "orders"),
		symbol:       symbol,
		orders:       make(map[string]domain.Order),
		balances:     domain.NewBalanceBook(),
		refreshCh:    make(chan struct{}, 1),
	}
}

// CreateOrder validates and submits a new order. Precondition failures are
// returned before any network call; the balance check is a UX hint only, the
// backend may still reject.
func (s *OrderService) CreateOrder(ctx context.Context, side, orderType, price, quantity string) (*domain.Order, error) {
	if err := s.guard.RequireAuth(); err != nil {
		return nil, err
	}

	if side != domain.SideBuy && side != domain.SideSell {
		return nil, domain.NewPreconditionError("side", "must be buy or sell")
	}
	if orderType != domain.OrderTypeLimit && orderType != domain.OrderTypeMarket {
		return nil, domain.NewPreconditionError("order_type", "must be limit or market")
	}

	qty, err := decimal.NewFromString(quantity)
	if err != nil || !qty.IsPositive() {
		return nil, domain.NewPreconditionError("quantity", "must be a positive decimal")
	}

	var limitPrice decimal.Decimal
	if orderType == domain.OrderTypeLimit {
		limitPrice, err = decimal.NewFromString(price)
		if err != nil || !limitPrice.IsPositive() {
			return nil, domain.NewPreconditionError("price", "must be a positive decimal")
		}
	}

	if err := s.checkBalance(side, orderType, limitPrice, qty); err != nil {
		return nil, err
	}

	req := domain.CreateOrderRequest{
		Symbol:    s.symbol,
		OrderType: orderType,
		Side:      side,
		Quantity:  qty.String(),
	}
	if orderType == domain.OrderTypeLimit {
		req.Price = limitPrice.String()
	}

	order, err := s.api.CreateOrder(ctx, req)
	if err != nil {
		infra.GlobalMetrics.RecordOrder(false)
		return nil, err
	}
	infra.GlobalMetrics.RecordOrder(true)

	s.mu.Lock()
	s.orders[order.ID] = *order
	s.mu.Unlock()

	// One order action can move both the order list and the balances.
	s.RequestRefresh()
	return order, nil
}

// checkBalance is the pre-flight sufficiency hint: quote asset for buys
// (priced at the limit price, or the last ticker price for market orders),
// base asset for sells. An unknown price skips the check; the backend
// enforces the real invariant.
func (s *OrderService) checkBalance(side, orderType string, limitPrice, qty decimal.Decimal) error {
	base, quote, ok := domain.SplitSymbol(s.symbol)
	if !ok {
		return domain.NewPreconditionError("symbol", "malformed symbol")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if side == domain.SideSell {
		if s.balances.Available(base).LessThan(qty) {
			return domain.NewPreconditionError("balance", "insufficient "+base+" balance")
		}
		return nil
	}

	price := limitPrice
	if orderType == domain.OrderTypeMarket {
		ticker, ok := s.market.Ticker(s.symbol)
		if !ok {
			return nil
		}
		price = ticker.LastPrice
	}
	if !price.IsPositive() {
		return nil
	}
	if s.balances.Available(quote).LessThan(price.Mul(qty)) {
		return domain.NewPreconditionError("balance", "insufficient "+quote+" balance")
	}
	return nil
}

// CancelOrder cancels an open order. Orders already terminal locally are
// rejected before the network call; the backend response decides the final
// status (cancelled or partial_cancelled).
func (s *OrderService) CancelOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	if err := s.guard.RequireAuth(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	cached, known := s.orders[orderID]
	s.mu.RUnlock()
	if known && cached.IsTerminal() {
		return nil, domain.ErrOrderNotOpen
	}

	order, err := s.api.CancelOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.orders[order.ID] = *order
	s.mu.Unlock()

	s.RequestRefresh()
	return order, nil
}

// RequestRefresh asks the poll loop for an out-of-band refresh. Coalesced if
// one is already pending.
func (s *OrderService) RequestRefresh() {
	select {
	case s.refreshCh <- struct{}{}:
	default:
	}
}

// Run drives the poll loop: orders and balances are re-fetched on the fixed
// interval while any non-terminal order exists, and immediately on request.
func (s *OrderService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.refreshCh:
			s.refresh(ctx)
		case <-ticker.C:
			if s.hasOpenOrders() {
				s.refresh(ctx)
			}
		}
	}
}

func (s *OrderService) hasOpenOrders() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.orders {
		if o.IsOpen() {
			return true
		}
	}
	return false
}

// refresh replaces both caches wholesale from the backend. Applying the same
// snapshot twice is a no-op; a failed fetch keeps the previous snapshot.
func (s *OrderService) refresh(ctx context.Context) {
	if !s.guard.Authenticated() {
		return
	}

	orders, err := s.api.GetOrders(ctx, s.symbol, "")
	if err != nil {
		infra.GlobalMetrics.RecordPoll(false)
		s.logger.Warn("order poll failed", slog.Any("error", err))
	} else {
		infra.GlobalMetrics.RecordPoll(true)
		s.mu.Lock()
		s.orders = make(map[string]domain.Order, len(orders))
		for _, o := range orders {
			s.orders[o.ID] = o
		}
		s.mu.Unlock()
	}

	balances, err := s.api.GetBalances(ctx)
	if err != nil {
		infra.GlobalMetrics.RecordPoll(false)
		s.logger.Warn("balance poll failed", slog.Any("error", err))
		return
	}
	infra.GlobalMetrics.RecordPoll(true)
	s.mu.Lock()
	s.balances.Replace(balances)
	s.mu.Unlock()
}

// Orders returns the cached order list, newest first.
func (s *OrderService) Orders() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Balance returns the cached balance snapshot for one asset.
func (s *OrderService) Balance(asset string) (domain.Balance, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances.Get(asset)
}

// SeedBalances installs a balance snapshot directly. Intended for startup
// and tests; steady-state updates come from the poll loop.
func (s *OrderService) SeedBalances(balances []domain.Balance) {
	s.mu.Lock()
	s.balances.Replace(balances)
	s.mu.Unlock()
}
