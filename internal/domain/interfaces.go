package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// CreateOrderRequest is the wire payload for POST /orders. Price is omitted
// for market orders.
type CreateOrderRequest struct {
	Symbol    string `json:"symbol"`
	OrderType string `json:"order_type"` // limit, market
	Side      string `json:"side"`       // buy, sell
	Price     string `json:"price,omitempty"`
	Quantity  string `json:"quantity"`
}

// DepositRequest registers a mined on-chain transfer with the backend.
type DepositRequest struct {
	Asset   string `json:"asset"`
	Amount  string `json:"amount"`
	TxHash  string `json:"txHash"`
	Chain   string `json:"chain"`
	ChainID int64  `json:"chainId"`
}

// WithdrawRequest asks the backend to pay out to an external address.
type WithdrawRequest struct {
	Asset   string `json:"asset"`
	Amount  string `json:"amount"`
	Address string `json:"address"`
	Chain   string `json:"chain"`
	ChainID int64  `json:"chainId"`
}

// MarketFetcher pulls market snapshots over REST. Used to bootstrap the push
// channel and as the only source for tickers.
type MarketFetcher interface {
	GetTicker(ctx context.Context, symbol string) (*Ticker, error)
	GetOrderBook(ctx context.Context, symbol string) (*OrderBook, error)
	GetRecentTrades(ctx context.Context, symbol string) ([]Trade, error)
}

// OrderAPI is the authenticated order/balance surface of the backend.
type OrderAPI interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error)
	CancelOrder(ctx context.Context, orderID string) (*Order, error)
	GetOrders(ctx context.Context, symbol, status string) ([]Order, error)
	GetBalances(ctx context.Context) ([]Balance, error)
}

// FundingAPI is the authenticated deposit/withdraw surface of the backend.
type FundingAPI interface {
	SubmitDeposit(ctx context.Context, req DepositRequest) error
	SubmitWithdraw(ctx context.Context, req WithdrawRequest) error
	GetDepositRecords(ctx context.Context) ([]DepositRecord, error)
	GetWithdrawRecords(ctx context.Context) ([]WithdrawRecord, error)
	GetChains(ctx context.Context) ([]ChainConfig, error)
}

// WalletSigner abstracts the user's wallet: message signing for login and
// ERC20 operations against the chain's configured token contract.
type WalletSigner interface {
	Address() string
	ChainID(ctx context.Context) (int64, error)
	SignLoginMessage(message string) (string, error)
	TokenBalance(ctx context.Context, cfg ChainConfig) (decimal.Decimal, error)
	// TransferToken sends amount to the platform deposit address of cfg and
	// waits for the receipt. Returns the transaction hash.
	TransferToken(ctx context.Context, cfg ChainConfig, amount decimal.Decimal) (string, error)
}
