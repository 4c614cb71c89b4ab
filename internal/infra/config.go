package infra

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application settings. Secrets are overridable through
// environment variables after the YAML file is loaded.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	API struct {
		RestURL string `yaml:"rest_url"` // e.g. https://velocity.0v1.xyz/api
		WSURL   string `yaml:"ws_url"`   // e.g. wss://velocity.0v1.xyz/ws
	} `yaml:"api"`

	// Symbols to watch, slash form.
	Symbols []string `yaml:"symbols"`

	Intervals struct {
		TickerMS    int `yaml:"ticker_ms"`    // ticker poll
		OrdersMS    int `yaml:"orders_ms"`    // order/balance poll
		TransfersMS int `yaml:"transfers_ms"` // deposit/withdraw record poll
		ReconnectMS int `yaml:"reconnect_ms"` // fixed WS reconnect delay
	} `yaml:"intervals"`

	Wallet struct {
		// Hex-encoded private key for the local signer. Prefer the
		// VELOCITY_PRIVATE_KEY environment variable over the file.
		PrivateKey string `yaml:"private_key"`
	} `yaml:"wallet"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	// .env first so the overrides below can see it.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.API.RestURL == "" || (!hasPrefix(c.API.RestURL, "http://") && !hasPrefix(c.API.RestURL, "https://")) {
		return fmt.Errorf("invalid REST URL: %s", c.API.RestURL)
	}
	if c.API.WSURL == "" || (!hasPrefix(c.API.WSURL, "ws://") && !hasPrefix(c.API.WSURL, "wss://")) {
		return fmt.Errorf("invalid WS URL: %s", c.API.WSURL)
	}
	if len(c.Symbols) == 0 {
		return fmt.Errorf("at least one symbol is required")
	}

	if c.Intervals.TickerMS <= 0 {
		c.Intervals.TickerMS = 3000
	}
	if c.Intervals.OrdersMS <= 0 {
		c.Intervals.OrdersMS = 5000
	}
	if c.Intervals.TransfersMS <= 0 {
		c.Intervals.TransfersMS = 10000
	}
	if c.Intervals.ReconnectMS <= 0 {
		c.Intervals.ReconnectMS = 5000
	}

	return nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

// overrideWithEnv applies environment variables on top of the file values.
func overrideWithEnv(cfg *Config) {
	if url := os.Getenv("VELOCITY_API_URL"); url != "" {
		cfg.API.RestURL = url
	}
	if url := os.Getenv("VELOCITY_WS_URL"); url != "" {
		cfg.API.WSURL = url
	}
	if key := os.Getenv("VELOCITY_PRIVATE_KEY"); key != "" {
		cfg.Wallet.PrivateKey = key
	}
}
