package exchange

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/haodong0616/velocity-client/internal/domain"
)

func TestClientEncodesSymbolInPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"symbol":"BTC/USDT","last_price":"50000"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	ticker, err := c.GetTicker(context.Background(), "BTC/USDT")
	if err != nil {
		t.Fatalf("GetTicker failed: %v", err)
	}
	if gotPath != "/market/ticker/BTC-USDT" {
		t.Errorf("expected dash-encoded path, got %s", gotPath)
	}
	if ticker.LastPrice.String() != "50000" {
		t.Errorf("expected last price 50000, got %s", ticker.LastPrice)
	}
}

func TestClientBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.GetOrders(context.Background(), "BTC/USDT", ""); err != nil {
		t.Fatalf("GetOrders failed: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("unauthenticated request carried auth header %q", gotAuth)
	}

	c.SetToken("jwt-123")
	if _, err := c.GetOrders(context.Background(), "BTC/USDT", ""); err != nil {
		t.Fatalf("GetOrders failed: %v", err)
	}
	if gotAuth != "Bearer jwt-123" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
}

func TestClientSurfacesServerRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"insufficient balance"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.CreateOrder(context.Background(), domain.CreateOrderRequest{Symbol: "BTC/USDT"})
	if err == nil {
		t.Fatal("expected error")
	}

	var rejection *domain.RejectionError
	if !errors.As(err, &rejection) {
		t.Fatalf("expected RejectionError, got %T: %v", err, err)
	}
	if rejection.Message != "insufficient balance" {
		t.Errorf("server message not surfaced verbatim: %q", rejection.Message)
	}
	if domain.IsRetriable(err) {
		t.Error("a rejection must not be retriable")
	}
}

func TestClientNetworkErrorIsRetriable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	_, err := c.GetTicker(context.Background(), "BTC/USDT")
	if err == nil {
		t.Fatal("expected error")
	}
	var netErr *domain.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %T: %v", err, err)
	}
	if !domain.IsRetriable(err) {
		t.Error("a transport failure must be retriable")
	}
}

func TestClientStatusOnlyErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.GetTicker(context.Background(), "BTC/USDT")
	var rejection *domain.RejectionError
	if !errors.As(err, &rejection) {
		t.Fatalf("expected RejectionError, got %T: %v", err, err)
	}
}
