package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Deposit lifecycle: signing -> submitted -> pending -> confirmed | failed.
// "submitted" means the on-chain transfer is mined but the backend has not
// acknowledged the registration yet; a deposit stuck there needs manual
// follow-up, it is never re-submitted automatically.
const (
	DepositStatusSigning   = "signing"
	DepositStatusSubmitted = "submitted"
	DepositStatusPending   = "pending"
	DepositStatusConfirmed = "confirmed"
	DepositStatusFailed    = "failed"
)

// Withdraw lifecycle: submitted -> pending -> processing -> completed | failed.
// The backend performs the on-chain transfer; the client transitions purely
// by polling the withdrawal record list.
const (
	WithdrawStatusSubmitted  = "submitted"
	WithdrawStatusPending    = "pending"
	WithdrawStatusProcessing = "processing"
	WithdrawStatusCompleted  = "completed"
	WithdrawStatusFailed     = "failed"
)

// DepositRecord tracks one deposit across the wallet-signing, chain-confirm
// and backend-verification boundaries.
type DepositRecord struct {
	ID        string          `gorm:"primaryKey;size:36" json:"id"`
	Asset     string          `gorm:"size:10;not null" json:"asset"`
	Amount    decimal.Decimal `gorm:"type:decimal(30,8);not null" json:"amount"`
	TxHash    string          `gorm:"size:66;index" json:"tx_hash"`
	Chain     string          `gorm:"size:20;not null" json:"chain"`
	ChainID   int64           `gorm:"not null" json:"chain_id"`
	Status    string          `gorm:"size:20;not null;index" json:"status"`
	TaskID    string          `gorm:"size:24" json:"task_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// IsTerminal reports whether the deposit reached a final state.
func (d *DepositRecord) IsTerminal() bool {
	return d.Status == DepositStatusConfirmed || d.Status == DepositStatusFailed
}

// WithdrawRecord tracks one withdrawal request.
type WithdrawRecord struct {
	ID        string          `gorm:"primaryKey;size:36" json:"id"`
	Asset     string          `gorm:"size:10;not null" json:"asset"`
	Amount    decimal.Decimal `gorm:"type:decimal(30,8);not null" json:"amount"`
	Address   string          `gorm:"size:42;not null" json:"address"`
	TxHash    string          `gorm:"size:66" json:"tx_hash,omitempty"`
	Chain     string          `gorm:"size:20;not null" json:"chain"`
	ChainID   int64           `gorm:"not null" json:"chain_id"`
	Status    string          `gorm:"size:20;not null;index" json:"status"`
	TaskID    string          `gorm:"size:24" json:"task_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// IsTerminal reports whether the withdrawal reached a final state.
func (w *WithdrawRecord) IsTerminal() bool {
	return w.Status == WithdrawStatusCompleted || w.Status == WithdrawStatusFailed
}
