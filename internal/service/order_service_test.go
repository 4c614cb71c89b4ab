package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/haodong0616/velocity-client/internal/domain"
)

type fakeOrderAPI struct {
	createCalls int
	cancelCalls int
	created     *domain.Order
	createErr   error
	cancelled   *domain.Order
	cancelErr   error
	orders      []domain.Order
	ordersErr   error
	balances    []domain.Balance
	balancesErr error
}

func (a *fakeOrderAPI) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	a.createCalls++
	if a.createErr != nil {
		return nil, a.createErr
	}
	return a.created, nil
}

func (a *fakeOrderAPI) CancelOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	a.cancelCalls++
	if a.cancelErr != nil {
		return nil, a.cancelErr
	}
	return a.cancelled, nil
}

func (a *fakeOrderAPI) GetOrders(ctx context.Context, symbol, status string) ([]domain.Order, error) {
	return a.orders, a.ordersErr
}

func (a *fakeOrderAPI) GetBalances(ctx context.Context) ([]domain.Balance, error) {
	return a.balances, a.balancesErr
}

func authedSession(t *testing.T) *Session {
	t.Helper()
	store := newMemStore()
	store.kv[tokenKey] = "test-token"
	s := NewSession(&fakeAuth{}, &fakeChainAPI{}, store, nil)
	if err := s.Restore(); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	return s
}

func testOrderService(t *testing.T, api *fakeOrderAPI) *OrderService {
	t.Helper()
	market := NewMarketService(&fakeFetcher{}, newFakeChannel(), time.Hour)
	return NewOrderService(api, authedSession(t), market, "BTC/USDT", time.Hour)
}

func balance(asset, available string) domain.Balance {
	return domain.Balance{Asset: asset, Available: dec(available)}
}

func TestCreateOrderRequiresAuth(t *testing.T) {
	api := &fakeOrderAPI{}
	market := NewMarketService(&fakeFetcher{}, newFakeChannel(), time.Hour)
	svc := NewOrderService(api, NewSession(&fakeAuth{}, &fakeChainAPI{}, newMemStore(), nil), market, "BTC/USDT", time.Hour)

	_, err := svc.CreateOrder(context.Background(), domain.SideBuy, domain.OrderTypeLimit, "50000", "1")
	if !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if api.createCalls != 0 {
		t.Fatal("precondition failure must not reach the network")
	}
}

func TestCreateOrderRejectsBadInputsLocally(t *testing.T) {
	cases := []struct {
		name      string
		side      string
		orderType string
		price     string
		quantity  string
	}{
		{"zero quantity", domain.SideBuy, domain.OrderTypeLimit, "50000", "0"},
		{"negative quantity", domain.SideBuy, domain.OrderTypeLimit, "50000", "-1"},
		{"garbage quantity", domain.SideBuy, domain.OrderTypeLimit, "50000", "abc"},
		{"zero limit price", domain.SideBuy, domain.OrderTypeLimit, "0", "1"},
		{"garbage price", domain.SideSell, domain.OrderTypeLimit, "x", "1"},
		{"bad side", "hold", domain.OrderTypeLimit, "50000", "1"},
		{"bad type", domain.SideBuy, "stop", "50000", "1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := &fakeOrderAPI{}
			svc := testOrderService(t, api)
			svc.SeedBalances([]domain.Balance{balance("USDT", "1000000"), balance("BTC", "100")})

			_, err := svc.CreateOrder(context.Background(), tc.side, tc.orderType, tc.price, tc.quantity)
			var pre *domain.PreconditionError
			if !errors.As(err, &pre) {
				t.Fatalf("expected PreconditionError, got %v", err)
			}
			if api.createCalls != 0 {
				t.Fatal("rejected order reached the network")
			}
		})
	}
}

func TestCreateOrderInsufficientBalance(t *testing.T) {
	api := &fakeOrderAPI{}
	svc := testOrderService(t, api)
	svc.SeedBalances([]domain.Balance{balance("USDT", "50")})

	// Buy 1 BTC at 100 USDT needs 100 available, only 50 there.
	_, err := svc.CreateOrder(context.Background(), domain.SideBuy, domain.OrderTypeLimit, "100", "1")
	var pre *domain.PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("expected PreconditionError, got %v", err)
	}
	if api.createCalls != 0 {
		t.Fatal("insufficient-balance order reached the network")
	}

	// Sell side checks the base asset.
	svc.SeedBalances([]domain.Balance{balance("BTC", "0.5")})
	_, err = svc.CreateOrder(context.Background(), domain.SideSell, domain.OrderTypeLimit, "100", "1")
	if !errors.As(err, &pre) {
		t.Fatalf("expected PreconditionError for sell, got %v", err)
	}
}

func TestCreateOrderSuccess(t *testing.T) {
	api := &fakeOrderAPI{created: &domain.Order{
		ID: "o1", Symbol: "BTC/USDT", Side: domain.SideBuy,
		OrderType: domain.OrderTypeLimit, Status: domain.OrderStatusPending,
	}}
	svc := testOrderService(t, api)
	svc.SeedBalances([]domain.Balance{balance("USDT", "1000")})

	order, err := svc.CreateOrder(context.Background(), domain.SideBuy, domain.OrderTypeLimit, "100", "1")
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if order.Status != domain.OrderStatusPending {
		t.Errorf("expected pending, got %s", order.Status)
	}

	// The accepted order is visible immediately, before any poll.
	orders := svc.Orders()
	if len(orders) != 1 || orders[0].ID != "o1" {
		t.Fatalf("order not in local list: %+v", orders)
	}
}

func TestCancelOrderTerminalGuard(t *testing.T) {
	api := &fakeOrderAPI{orders: []domain.Order{
		{ID: "done", Symbol: "BTC/USDT", Status: domain.OrderStatusFilled},
	}}
	svc := testOrderService(t, api)
	svc.refresh(context.Background())

	_, err := svc.CancelOrder(context.Background(), "done")
	if !errors.Is(err, domain.ErrOrderNotOpen) {
		t.Fatalf("expected ErrOrderNotOpen, got %v", err)
	}
	if api.cancelCalls != 0 {
		t.Fatal("terminal cancel reached the network")
	}
}

func TestCancelOrderUnknownGoesToBackend(t *testing.T) {
	// An order the client never saw may still exist server-side.
	api := &fakeOrderAPI{cancelled: &domain.Order{ID: "remote", Status: domain.OrderStatusCancelled}}
	svc := testOrderService(t, api)

	order, err := svc.CancelOrder(context.Background(), "remote")
	if err != nil {
		t.Fatalf("CancelOrder failed: %v", err)
	}
	if order.Status != domain.OrderStatusCancelled {
		t.Errorf("expected cancelled, got %s", order.Status)
	}
	if api.cancelCalls != 1 {
		t.Fatalf("expected 1 cancel call, got %d", api.cancelCalls)
	}
}

func TestRefreshReplacesCachesWholesale(t *testing.T) {
	api := &fakeOrderAPI{
		orders: []domain.Order{
			{ID: "a", Symbol: "BTC/USDT", Status: domain.OrderStatusPending},
			{ID: "b", Symbol: "BTC/USDT", Status: domain.OrderStatusFilled},
		},
		balances: []domain.Balance{balance("USDT", "900")},
	}
	svc := testOrderService(t, api)
	svc.refresh(context.Background())

	if len(svc.Orders()) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(svc.Orders()))
	}
	if b, ok := svc.Balance("USDT"); !ok || !b.Available.Equal(dec("900")) {
		t.Fatalf("balances not applied: %+v", b)
	}

	// Next snapshot drops one order; the cache must follow.
	api.orders = api.orders[:1]
	api.balances = []domain.Balance{balance("USDT", "800")}
	svc.refresh(context.Background())

	if len(svc.Orders()) != 1 || svc.Orders()[0].ID != "a" {
		t.Fatalf("stale order survived refresh: %+v", svc.Orders())
	}
	if b, _ := svc.Balance("USDT"); !b.Available.Equal(dec("800")) {
		t.Fatalf("stale balance survived refresh: %+v", b)
	}
}

func TestRefreshKeepsCachesOnFailure(t *testing.T) {
	api := &fakeOrderAPI{
		orders:   []domain.Order{{ID: "a", Symbol: "BTC/USDT", Status: domain.OrderStatusPending}},
		balances: []domain.Balance{balance("USDT", "900")},
	}
	svc := testOrderService(t, api)
	svc.refresh(context.Background())

	api.ordersErr = errors.New("502")
	api.balancesErr = errors.New("502")
	svc.refresh(context.Background())

	if len(svc.Orders()) != 1 {
		t.Fatal("order cache lost on failed poll")
	}
	if b, ok := svc.Balance("USDT"); !ok || !b.Available.Equal(dec("900")) {
		t.Fatalf("balance cache lost on failed poll: %+v", b)
	}
}
