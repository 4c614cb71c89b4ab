package infra

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.API.RestURL = "https://velocity.example/api"
	cfg.API.WSURL = "wss://velocity.example/ws"
	cfg.Symbols = []string{"BTC/USDT"}
	return cfg
}

func TestConfigValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cfg := validConfig()
	cfg.API.RestURL = "ftp://nope"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for non-http REST URL")
	}

	cfg = validConfig()
	cfg.API.WSURL = "https://not-ws"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for non-ws WS URL")
	}

	cfg = validConfig()
	cfg.Symbols = nil
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty symbol list")
	}
}

func TestConfigValidateDefaultsIntervals(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if cfg.Intervals.TickerMS != 3000 {
		t.Errorf("expected ticker default 3000, got %d", cfg.Intervals.TickerMS)
	}
	if cfg.Intervals.OrdersMS != 5000 {
		t.Errorf("expected orders default 5000, got %d", cfg.Intervals.OrdersMS)
	}
	if cfg.Intervals.TransfersMS != 10000 {
		t.Errorf("expected transfers default 10000, got %d", cfg.Intervals.TransfersMS)
	}
	if cfg.Intervals.ReconnectMS != 5000 {
		t.Errorf("expected reconnect default 5000, got %d", cfg.Intervals.ReconnectMS)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
api:
  rest_url: "https://file.example/api"
  ws_url: "wss://file.example/ws"
symbols:
  - "BTC/USDT"
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("VELOCITY_API_URL", "https://env.example/api")
	t.Setenv("VELOCITY_PRIVATE_KEY", "deadbeef")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.API.RestURL != "https://env.example/api" {
		t.Errorf("env override not applied, got %s", cfg.API.RestURL)
	}
	if cfg.API.WSURL != "wss://file.example/ws" {
		t.Errorf("file value lost, got %s", cfg.API.WSURL)
	}
	if cfg.Wallet.PrivateKey != "deadbeef" {
		t.Errorf("secret override not applied")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
