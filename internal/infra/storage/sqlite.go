package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/haodong0616/velocity-client/internal/domain"
)

// Storage is the local SQLite cache: asset metadata, app key-values (session
// token), cached chain configs, and the client-side transfer mirror.
type Storage struct {
	db *gorm.DB
}

// NewStorage creates a new SQLite storage instance
func NewStorage() (*Storage, error) {
	dbPath, err := getDBPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve DB path: %w", err)
	}
	return Open(dbPath)
}

// Open creates a storage at an explicit path. Tests use a temp dir.
func Open(dbPath string) (*Storage, error) {
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto Migration
	if err := db.AutoMigrate(
		&domain.CoinInfo{},
		&domain.AppConfig{},
		&domain.ChainConfig{},
		&domain.DepositRecord{},
		&domain.WithdrawRecord{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// getDBPath resolves the database file path based on OS
func getDBPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "VelocityClient", "data", "client.db"), nil
}

// ======================================================================================
// Coin Operations
// ======================================================================================

// UpsertCoin creates or updates coin metadata
func (s *Storage) UpsertCoin(coin *domain.CoinInfo) error {
	return s.db.Save(coin).Error
}

// GetCoin retrieves coin metadata by symbol
func (s *Storage) GetCoin(symbol string) (*domain.CoinInfo, error) {
	var coin domain.CoinInfo
	err := s.db.First(&coin, "symbol = ?", symbol).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	return &coin, err
}

// GetAllCoins retrieves all coins
func (s *Storage) GetAllCoins() ([]domain.CoinInfo, error) {
	var coins []domain.CoinInfo
	err := s.db.Find(&coins).Error
	return coins, err
}

// ======================================================================================
// App Config Operations
// ======================================================================================

// SaveConfig saves a local key-value setting
func (s *Storage) SaveConfig(key, value string) error {
	config := domain.AppConfig{
		Key:   key,
		Value: value,
	}
	return s.db.Save(&config).Error
}

// GetConfig loads one setting. Missing keys return "".
func (s *Storage) GetConfig(key string) (string, error) {
	var config domain.AppConfig
	err := s.db.First(&config, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	return config.Value, err
}

// DeleteConfig removes one setting.
func (s *Storage) DeleteConfig(key string) error {
	return s.db.Where("key = ?", key).Delete(&domain.AppConfig{}).Error
}

// ======================================================================================
// Chain Config Cache
// ======================================================================================

// ReplaceChainConfigs swaps the cached chain list for a fresh backend fetch.
func (s *Storage) ReplaceChainConfigs(chains []domain.ChainConfig) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&domain.ChainConfig{}).Error; err != nil {
			return err
		}
		if len(chains) == 0 {
			return nil
		}
		return tx.Create(&chains).Error
	})
}

// GetChainConfigs returns the cached chain list.
func (s *Storage) GetChainConfigs() ([]domain.ChainConfig, error) {
	var chains []domain.ChainConfig
	err := s.db.Find(&chains).Error
	return chains, err
}

// ======================================================================================
// Transfer Mirror
// ======================================================================================

// SaveDeposit creates or updates a locally tracked deposit record.
func (s *Storage) SaveDeposit(record *domain.DepositRecord) error {
	return s.db.Save(record).Error
}

// GetDepositByTxHash finds a local deposit by its transaction hash.
func (s *Storage) GetDepositByTxHash(txHash string) (*domain.DepositRecord, error) {
	var record domain.DepositRecord
	err := s.db.First(&record, "tx_hash = ?", txHash).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &record, err
}

// GetOpenDeposits returns deposits not yet in a terminal state.
func (s *Storage) GetOpenDeposits() ([]domain.DepositRecord, error) {
	var records []domain.DepositRecord
	err := s.db.
		Where("status NOT IN ?", []string{domain.DepositStatusConfirmed, domain.DepositStatusFailed}).
		Find(&records).Error
	return records, err
}

// SaveWithdraw creates or updates a locally tracked withdrawal record.
func (s *Storage) SaveWithdraw(record *domain.WithdrawRecord) error {
	return s.db.Save(record).Error
}

// GetOpenWithdraws returns withdrawals not yet in a terminal state.
func (s *Storage) GetOpenWithdraws() ([]domain.WithdrawRecord, error) {
	var records []domain.WithdrawRecord
	err := s.db.
		Where("status NOT IN ?", []string{domain.WithdrawStatusCompleted, domain.WithdrawStatusFailed}).
		Find(&records).Error
	return records, err
}
