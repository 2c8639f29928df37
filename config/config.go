package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the complete paper trading configuration
type Config struct {
	Account AccountConfig `json:"account" yaml:"account"`
	Monitor MonitorConfig `json:"monitor" yaml:"monitor"`
	Feed    FeedConfig    `json:"feed" yaml:"feed"`
	Equity  EquityConfig  `json:"equity" yaml:"equity"`
	Logs    LogsConfig    `json:"logs" yaml:"logs"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
	Plans   PlansConfig   `json:"plans" yaml:"plans"`
	Server  ServerConfig  `json:"server" yaml:"server"`
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	InitialCapital float64 `json:"initial_capital" yaml:"initial_capital"`
}

// MonitorConfig contains monitor loop parameters
type MonitorConfig struct {
	Interval            string  `json:"interval" yaml:"interval"` // e.g. "5m", "30s"
	EntryTolerance      float64 `json:"entry_tolerance" yaml:"entry_tolerance"`
	MaxPositionFraction float64 `json:"max_position_fraction" yaml:"max_position_fraction"`
	MaxPlans            int     `json:"max_plans" yaml:"max_plans"`
}

// ParseInterval converts the interval string to time.Duration
func (mc MonitorConfig) ParseInterval() (time.Duration, error) {
	return time.ParseDuration(mc.Interval)
}

// FeedConfig selects and tunes the price source
type FeedConfig struct {
	Provider      string             `json:"provider" yaml:"provider"` // "binance" or "fixed"
	Timeout       string             `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	RetryAttempts int                `json:"retry_attempts,omitempty" yaml:"retry_attempts,omitempty"`
	Prices        map[string]float64 `json:"prices,omitempty" yaml:"prices,omitempty"`
}

// ParseTimeout converts the timeout string to time.Duration
func (fc FeedConfig) ParseTimeout() (time.Duration, error) {
	if fc.Timeout == "" {
		return 10 * time.Second, nil
	}
	return time.ParseDuration(fc.Timeout)
}

// EquityConfig sizes the in-memory equity series
type EquityConfig struct {
	RecentPoints int `json:"recent_points" yaml:"recent_points"`
	MaxPoints    int `json:"max_points" yaml:"max_points"`
}

// LogsConfig sizes the monitor log ring
type LogsConfig struct {
	Capacity int `json:"capacity" yaml:"capacity"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	DBPath string `json:"db_path" yaml:"db_path"`
}

// PlansConfig points at the trading plan database
type PlansConfig struct {
	DBPath string `json:"db_path" yaml:"db_path"`
}

// ServerConfig contains API server parameters
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// LoadFromFile loads configuration from a file (JSON or YAML based on content)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.InitialCapital <= 0 {
		return fmt.Errorf("account.initial_capital must be positive")
	}
	if _, err := c.Monitor.ParseInterval(); err != nil {
		return fmt.Errorf("monitor.interval: %w", err)
	}
	if c.Monitor.EntryTolerance < 0 || c.Monitor.EntryTolerance > 1 {
		return fmt.Errorf("monitor.entry_tolerance must be between 0 and 1")
	}
	if c.Monitor.MaxPositionFraction <= 0 || c.Monitor.MaxPositionFraction > 1 {
		return fmt.Errorf("monitor.max_position_fraction must be between 0 and 1")
	}
	if c.Monitor.MaxPlans <= 0 {
		return fmt.Errorf("monitor.max_plans must be positive")
	}
	if c.Feed.Provider != "binance" && c.Feed.Provider != "fixed" {
		return fmt.Errorf("feed.provider must be 'binance' or 'fixed'")
	}
	if _, err := c.Feed.ParseTimeout(); err != nil {
		return fmt.Errorf("feed.timeout: %w", err)
	}
	if c.Feed.RetryAttempts < 0 {
		return fmt.Errorf("feed.retry_attempts must not be negative")
	}
	if c.Equity.RecentPoints <= 0 || c.Equity.MaxPoints <= 0 {
		return fmt.Errorf("equity.recent_points and equity.max_points must be positive")
	}
	if c.Logs.Capacity <= 0 {
		return fmt.Errorf("logs.capacity must be positive")
	}
	if c.Journal.DBPath == "" {
		return fmt.Errorf("journal.db_path is required")
	}
	if c.Plans.DBPath == "" {
		return fmt.Errorf("plans.db_path is required")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			InitialCapital: 100000,
		},
		Monitor: MonitorConfig{
			Interval:            "5m",
			EntryTolerance:      0.01,
			MaxPositionFraction: 0.1,
			MaxPlans:            20,
		},
		Feed: FeedConfig{
			Provider:      "binance",
			Timeout:       "10s",
			RetryAttempts: 3,
		},
		Equity: EquityConfig{
			RecentPoints: 500,
			MaxPoints:    5000,
		},
		Logs: LogsConfig{
			Capacity: 1000,
		},
		Journal: JournalConfig{
			DBPath: "./papertrade.db",
		},
		Plans: PlansConfig{
			DBPath: "./plans.db",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// LoadEnv loads a .env file if present. Variables already set in the
// environment win.
func LoadEnv() {
	_ = godotenv.Load()
}

// BinanceCredentials reads the exchange API keys from the environment.
// Both may be empty; public market data endpoints do not require them.
func BinanceCredentials() (apiKey, secretKey string) {
	return os.Getenv("BINANCE_API_KEY"), os.Getenv("BINANCE_SECRET_KEY")
}
