package domain

import "time"

// ChainConfig is read-only reference data for one supported chain, fetched
// from the backend once and cached. The wallet's active chain must match an
// enabled config before any transfer is attempted.
type ChainConfig struct {
	ID              string    `gorm:"primaryKey;size:24" json:"id"`
	ChainName       string    `gorm:"uniqueIndex;size:100;not null" json:"chain_name"`
	ChainID         int64     `gorm:"uniqueIndex;not null" json:"chain_id"`
	RpcURL          string    `gorm:"size:500;not null" json:"rpc_url"`
	ExplorerURL     string    `gorm:"size:500" json:"block_explorer_url"`
	ContractAddress string    `gorm:"size:42;not null" json:"usdt_contract_address"`
	Decimals        int       `gorm:"not null;default:18" json:"usdt_decimals"`
	PlatformAddress string    `gorm:"size:42;not null" json:"platform_deposit_address"`
	Enabled         bool      `gorm:"default:true" json:"enabled"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
