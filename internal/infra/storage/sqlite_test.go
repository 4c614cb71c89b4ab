package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/haodong0616/velocity-client/internal/domain"
)

func setupTestDB(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	return s
}

func TestUpsertAndGetCoin(t *testing.T) {
	s := setupTestDB(t)

	coin := &domain.CoinInfo{
		Symbol:    "BTC",
		Name:      "Bitcoin",
		IsActive:  true,
		UpdatedAt: time.Now(),
	}

	if err := s.UpsertCoin(coin); err != nil {
		t.Fatalf("UpsertCoin failed: %v", err)
	}

	fetched, err := s.GetCoin("BTC")
	if err != nil {
		t.Fatalf("GetCoin failed: %v", err)
	}
	if fetched == nil {
		t.Fatal("fetched coin is nil")
	}
	if fetched.Name != "Bitcoin" {
		t.Errorf("expected name Bitcoin, got %s", fetched.Name)
	}

	// Missing coins are not an error.
	missing, err := s.GetCoin("NOPE")
	if err != nil {
		t.Fatalf("GetCoin for missing symbol errored: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing coin, got %+v", missing)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	s := setupTestDB(t)

	if err := s.SaveConfig("session.token", "jwt-abc"); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	value, err := s.GetConfig("session.token")
	if err != nil {
		t.Fatalf("GetConfig failed: %v", err)
	}
	if value != "jwt-abc" {
		t.Errorf("expected jwt-abc, got %q", value)
	}

	// Overwrite
	if err := s.SaveConfig("session.token", "jwt-def"); err != nil {
		t.Fatalf("SaveConfig overwrite failed: %v", err)
	}
	value, _ = s.GetConfig("session.token")
	if value != "jwt-def" {
		t.Errorf("expected jwt-def, got %q", value)
	}

	// Delete
	if err := s.DeleteConfig("session.token"); err != nil {
		t.Fatalf("DeleteConfig failed: %v", err)
	}
	value, err = s.GetConfig("session.token")
	if err != nil {
		t.Fatalf("GetConfig after delete errored: %v", err)
	}
	if value != "" {
		t.Errorf("expected empty value after delete, got %q", value)
	}
}

func TestReplaceChainConfigs(t *testing.T) {
	s := setupTestDB(t)

	first := []domain.ChainConfig{
		{ID: "c1", ChainName: "BSC", ChainID: 56, RpcURL: "https://rpc.one", ContractAddress: "0x1", PlatformAddress: "0x2", Enabled: true},
		{ID: "c2", ChainName: "Ethereum", ChainID: 1, RpcURL: "https://rpc.two", ContractAddress: "0x3", PlatformAddress: "0x4", Enabled: true},
	}
	if err := s.ReplaceChainConfigs(first); err != nil {
		t.Fatalf("ReplaceChainConfigs failed: %v", err)
	}

	// A later fetch fully replaces the cache.
	second := []domain.ChainConfig{
		{ID: "c3", ChainName: "BSC Testnet", ChainID: 97, RpcURL: "https://rpc.three", ContractAddress: "0x5", PlatformAddress: "0x6", Enabled: false},
	}
	if err := s.ReplaceChainConfigs(second); err != nil {
		t.Fatalf("ReplaceChainConfigs failed: %v", err)
	}

	chains, err := s.GetChainConfigs()
	if err != nil {
		t.Fatalf("GetChainConfigs failed: %v", err)
	}
	if len(chains) != 1 || chains[0].ChainID != 97 {
		t.Fatalf("expected only the new chain, got %+v", chains)
	}
}

func TestDepositMirror(t *testing.T) {
	s := setupTestDB(t)

	record := &domain.DepositRecord{
		ID:      "d1",
		Asset:   "USDT",
		Amount:  decimal.RequireFromString("100"),
		TxHash:  "0xabc",
		Chain:   "BSC",
		ChainID: 56,
		Status:  domain.DepositStatusSubmitted,
	}
	if err := s.SaveDeposit(record); err != nil {
		t.Fatalf("SaveDeposit failed: %v", err)
	}

	fetched, err := s.GetDepositByTxHash("0xabc")
	if err != nil {
		t.Fatalf("GetDepositByTxHash failed: %v", err)
	}
	if fetched == nil || fetched.ID != "d1" {
		t.Fatalf("deposit not found by tx hash: %+v", fetched)
	}

	open, err := s.GetOpenDeposits()
	if err != nil {
		t.Fatalf("GetOpenDeposits failed: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("expected 1 open deposit, got %d", len(open))
	}

	// Terminal records drop out of the open list.
	record.Status = domain.DepositStatusConfirmed
	if err := s.SaveDeposit(record); err != nil {
		t.Fatalf("SaveDeposit update failed: %v", err)
	}
	open, _ = s.GetOpenDeposits()
	if len(open) != 0 {
		t.Fatalf("confirmed deposit still open: %+v", open)
	}
}

func TestWithdrawMirror(t *testing.T) {
	s := setupTestDB(t)

	record := &domain.WithdrawRecord{
		ID:      "w1",
		Asset:   "USDT",
		Amount:  decimal.RequireFromString("25"),
		Address: "0xab5d1c00000000000000000000000000000000cd",
		Chain:   "BSC",
		ChainID: 56,
		Status:  domain.WithdrawStatusSubmitted,
	}
	if err := s.SaveWithdraw(record); err != nil {
		t.Fatalf("SaveWithdraw failed: %v", err)
	}

	open, err := s.GetOpenWithdraws()
	if err != nil {
		t.Fatalf("GetOpenWithdraws failed: %v", err)
	}
	if len(open) != 1 || open[0].ID != "w1" {
		t.Fatalf("expected the open withdraw, got %+v", open)
	}

	record.Status = domain.WithdrawStatusFailed
	if err := s.SaveWithdraw(record); err != nil {
		t.Fatalf("SaveWithdraw update failed: %v", err)
	}
	open, _ = s.GetOpenWithdraws()
	if len(open) != 0 {
		t.Fatalf("failed withdraw still open: %+v", open)
	}
}
