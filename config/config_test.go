package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.Equal(t, 100000.0, cfg.Account.InitialCapital)
	assert.Equal(t, 0.1, cfg.Monitor.MaxPositionFraction)
	assert.Equal(t, "binance", cfg.Feed.Provider)
	assert.NoError(t, cfg.Validate())

	interval, err := cfg.Monitor.ParseInterval()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, interval)
}

func TestValidate(t *testing.T) {
	mutate := func(f func(*Config)) *Config {
		cfg := Default()
		f(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid config",
			config:  Default(),
			wantErr: false,
		},
		{
			name:    "non-positive capital",
			config:  mutate(func(c *Config) { c.Account.InitialCapital = 0 }),
			wantErr: true,
			errMsg:  "account.initial_capital must be positive",
		},
		{
			name:    "bad interval",
			config:  mutate(func(c *Config) { c.Monitor.Interval = "five minutes" }),
			wantErr: true,
			errMsg:  "monitor.interval",
		},
		{
			name:    "position fraction over one",
			config:  mutate(func(c *Config) { c.Monitor.MaxPositionFraction = 1.5 }),
			wantErr: true,
			errMsg:  "monitor.max_position_fraction must be between 0 and 1",
		},
		{
			name:    "unknown feed provider",
			config:  mutate(func(c *Config) { c.Feed.Provider = "oanda" }),
			wantErr: true,
			errMsg:  "feed.provider must be 'binance' or 'fixed'",
		},
		{
			name:    "missing journal path",
			config:  mutate(func(c *Config) { c.Journal.DBPath = "" }),
			wantErr: true,
			errMsg:  "journal.db_path is required",
		},
		{
			name:    "missing server addr",
			config:  mutate(func(c *Config) { c.Server.Addr = "" }),
			wantErr: true,
			errMsg:  "server.addr is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFromFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
account:
  initial_capital: 50000
monitor:
  interval: 1m
  entry_tolerance: 0.02
  max_position_fraction: 0.2
  max_plans: 10
feed:
  provider: fixed
  prices:
    BTCUSDT: 64000
equity:
  recent_points: 100
  max_points: 1000
logs:
  capacity: 200
journal:
  db_path: /tmp/journal.db
plans:
  db_path: /tmp/plans.db
server:
  addr: ":9090"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 50000.0, cfg.Account.InitialCapital)
	assert.Equal(t, "fixed", cfg.Feed.Provider)
	assert.Equal(t, 64000.0, cfg.Feed.Prices["BTCUSDT"])
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestLoadFromFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := Default()
	cfg.Server.Addr = ":7070"
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", loaded.Server.Addr)
}

func TestLoadFromFileRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("account:\n  initial_capital: -5\n"), 0644))

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}
