package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is the server's authoritative per-asset snapshot. The client never
// moves funds between available and frozen itself; it only displays the last
// polled snapshot and tolerates staleness between an accepted action and the
// next poll.
type Balance struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Asset     string          `json:"asset"`
	Available decimal.Decimal `json:"available"`
	Frozen    decimal.Decimal `json:"frozen"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Total returns available + frozen.
func (b *Balance) Total() decimal.Decimal {
	return b.Available.Add(b.Frozen)
}

// BalanceBook is a read model over the last polled balance snapshot,
// keyed by asset.
type BalanceBook struct {
	balances map[string]Balance
}

// NewBalanceBook creates an empty balance book.
func NewBalanceBook() *BalanceBook {
	return &BalanceBook{balances: make(map[string]Balance)}
}

// Replace swaps in a full snapshot, discarding all previous entries.
func (bb *BalanceBook) Replace(balances []Balance) {
	next := make(map[string]Balance, len(balances))
	for _, b := range balances {
		next[b.Asset] = b
	}
	bb.balances = next
}

// Available returns the available amount for an asset, zero if unknown.
func (bb *BalanceBook) Available(asset string) decimal.Decimal {
	return bb.balances[asset].Available
}

// Get returns the balance for an asset and whether it is known.
func (bb *BalanceBook) Get(asset string) (Balance, bool) {
	b, ok := bb.balances[asset]
	return b, ok
}

// All returns a copy of every balance in the book.
func (bb *BalanceBook) All() []Balance {
	result := make([]Balance, 0, len(bb.balances))
	for _, b := range bb.balances {
		result = append(result, b)
	}
	return result
}
