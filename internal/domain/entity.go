package domain

import (
	"time"
)

// CoinInfo represents locally cached metadata for one asset.
type CoinInfo struct {
	Symbol       string    `gorm:"primaryKey" json:"symbol"`
	Name         string    `json:"name"`
	IconPath     string    `json:"icon_path"`
	IsActive     bool      `json:"is_active" gorm:"index"`
	LastSyncedAt time.Time `json:"last_synced_at"` // Last icon sync time
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AppConfig represents client-local configuration (Key-Value). The session
// token lives here so a login survives restarts.
type AppConfig struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
