package configloader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port                string `yaml:"port"`
	ReadTimeoutSeconds  int    `yaml:"readTimeoutSeconds"`
	WriteTimeoutSeconds int    `yaml:"writeTimeoutSeconds"`
	IdleTimeoutSeconds  int    `yaml:"idleTimeoutSeconds"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// BridgeConfig holds configuration for the wallet-extension bridge the
// service calls into. An empty BaseURL means the integration is not loaded;
// the service stays up and reports that state to clients.
type BridgeConfig struct {
	BaseURL              string  `yaml:"baseURL"`
	RequestTimeoutMillis int64   `yaml:"requestTimeoutMillis"`
	RateLimitPerSecond   float64 `yaml:"rateLimitPerSecond"`
	RateLimitBurst       int     `yaml:"rateLimitBurst"`
}

// CatalogConfig holds paths to the static staking catalog files.
type CatalogConfig struct {
	Dir string `yaml:"dir"`
}

// DataConfig tunes the read-side loaders.
type DataConfig struct {
	TransactionsDefaultLimit int `yaml:"transactionsDefaultLimit"`
	SnapshotTTLSeconds       int `yaml:"snapshotTTLSeconds"`
}

// StakingConfig tunes the staking controller.
type StakingConfig struct {
	// ResyncIntervalSeconds enables a periodic position resync for active
	// wallets when > 0. 0 disables the timer; mutations still resync.
	ResyncIntervalSeconds int `yaml:"resyncIntervalSeconds"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	Bridge  BridgeConfig  `yaml:"bridge"`
	Catalog CatalogConfig `yaml:"catalog"`
	Data    DataConfig    `yaml:"data"`
	Staking StakingConfig `yaml:"staking"`
}

// Load reads the YAML configuration file from the given path and unmarshals
// it, filling defaults for anything not set.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Server.ReadTimeoutSeconds <= 0 {
		cfg.Server.ReadTimeoutSeconds = 10
	}
	if cfg.Server.WriteTimeoutSeconds <= 0 {
		cfg.Server.WriteTimeoutSeconds = 10
	}
	if cfg.Server.IdleTimeoutSeconds <= 0 {
		cfg.Server.IdleTimeoutSeconds = 60
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Bridge.RequestTimeoutMillis <= 0 {
		cfg.Bridge.RequestTimeoutMillis = 10000
	}
	if cfg.Bridge.RateLimitPerSecond <= 0 {
		cfg.Bridge.RateLimitPerSecond = 20
	}
	if cfg.Bridge.RateLimitBurst <= 0 {
		cfg.Bridge.RateLimitBurst = 5
	}
	if cfg.Catalog.Dir == "" {
		cfg.Catalog.Dir = "data/catalog"
	}
	if cfg.Data.TransactionsDefaultLimit <= 0 {
		cfg.Data.TransactionsDefaultLimit = 10
	}
	if cfg.Data.SnapshotTTLSeconds <= 0 {
		cfg.Data.SnapshotTTLSeconds = 300
	}
}
