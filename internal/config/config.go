// Package config provides configuration management for the backtester.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// Defaults applied where the file leaves a value unset.
const (
	defaultLowerBoundFactor = 0.85
	defaultUpperBoundFactor = 1.15
	defaultBufferPct        = 0.01
	defaultWickThresholdPct = 0.08
	defaultWickLookback     = 12 * time.Hour
	defaultWickCooldown     = 4 * time.Hour
	defaultSlippageFactor   = 0.001
	defaultInitialCapital   = 10000.0
	defaultToleranceSeconds = 5
	defaultMaxSearchTries   = 50
	defaultSymbol           = "ETHUSDT"
)

// approxBlockTimes are per-chain block time estimates in seconds, used to
// pre-narrow the block search window.
var approxBlockTimes = map[string]float64{
	"ethereum": 13,
	"base":     2,
	"arbitrum": 0.5,
}

// Config represents the complete application configuration.
type Config struct {
	Pool     PoolConfig     `yaml:"pool"`
	Backtest BacktestConfig `yaml:"backtest"`
	Search   SearchConfig   `yaml:"search"`
	Storage  StorageConfig  `yaml:"storage"`
}

// PoolConfig identifies the pool under test and how to reach it.
type PoolConfig struct {
	Address string `yaml:"address"`
	Chain   string `yaml:"chain"` // ethereum | base | arbitrum
	RPCURL  string `yaml:"rpc_url"`
	// ApproxBlockTimeSeconds overrides the per-chain default when set.
	ApproxBlockTimeSeconds float64 `yaml:"approx_block_time_seconds"`
}

// BacktestConfig defines the strategy parameters.
type BacktestConfig struct {
	Symbol           string  `yaml:"symbol"`
	StartDate        string  `yaml:"start_date"` // YYYY-MM-DD
	EndDate          string  `yaml:"end_date"`   // YYYY-MM-DD
	InitialCapital   float64 `yaml:"initial_capital"`
	LowerBoundFactor float64 `yaml:"lower_bound_factor"`
	UpperBoundFactor float64 `yaml:"upper_bound_factor"`
	BufferPct        float64 `yaml:"buffer_pct"`
	WickThresholdPct float64 `yaml:"wick_threshold_pct"`
	WickLookbackH    int     `yaml:"wick_lookback_hours"`
	WickCooldownH    int     `yaml:"wick_cooldown_hours"`
	SlippageFactor   float64 `yaml:"slippage_factor"`
}

// SearchConfig tunes the timestamp-to-block search.
type SearchConfig struct {
	ToleranceSeconds int64 `yaml:"tolerance_seconds"`
	MaxTries         int   `yaml:"max_tries"`
}

// StorageConfig selects and configures the persistence backends.
type StorageConfig struct {
	Driver        string `yaml:"driver"` // memory | postgres
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"` // candle cache, optional
}

// Load reads and parses the configuration file from the specified path.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- configPath is a user-provided config file path
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var config Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// applyDefaults fills unset values.
func (c *Config) applyDefaults() {
	if c.Backtest.Symbol == "" {
		c.Backtest.Symbol = defaultSymbol
	}
	if c.Backtest.InitialCapital == 0 {
		c.Backtest.InitialCapital = defaultInitialCapital
	}
	if c.Backtest.LowerBoundFactor == 0 {
		c.Backtest.LowerBoundFactor = defaultLowerBoundFactor
	}
	if c.Backtest.UpperBoundFactor == 0 {
		c.Backtest.UpperBoundFactor = defaultUpperBoundFactor
	}
	if c.Backtest.BufferPct == 0 {
		c.Backtest.BufferPct = defaultBufferPct
	}
	if c.Backtest.WickThresholdPct == 0 {
		c.Backtest.WickThresholdPct = defaultWickThresholdPct
	}
	if c.Backtest.WickLookbackH == 0 {
		c.Backtest.WickLookbackH = int(defaultWickLookback.Hours())
	}
	if c.Backtest.WickCooldownH == 0 {
		c.Backtest.WickCooldownH = int(defaultWickCooldown.Hours())
	}
	if c.Backtest.SlippageFactor == 0 {
		c.Backtest.SlippageFactor = defaultSlippageFactor
	}
	if c.Search.ToleranceSeconds == 0 {
		c.Search.ToleranceSeconds = defaultToleranceSeconds
	}
	if c.Search.MaxTries == 0 {
		c.Search.MaxTries = defaultMaxSearchTries
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Pool.ApproxBlockTimeSeconds == 0 {
		if bt, ok := approxBlockTimes[c.Pool.Chain]; ok {
			c.Pool.ApproxBlockTimeSeconds = bt
		}
	}
}

// Validate checks that all configuration values are valid and consistent.
func (c *Config) Validate() error {
	// Pool validation
	if c.Pool.Address == "" {
		return fmt.Errorf("pool.address is required")
	}
	if !strings.HasPrefix(c.Pool.Address, "0x") || len(c.Pool.Address) != 42 {
		return fmt.Errorf("pool.address must be a 0x-prefixed 20-byte hex address")
	}
	if _, ok := approxBlockTimes[c.Pool.Chain]; !ok {
		return fmt.Errorf("pool.chain must be one of: ethereum, base, arbitrum")
	}
	if c.Pool.RPCURL == "" {
		return fmt.Errorf("pool.rpc_url is required")
	}
	if c.Pool.ApproxBlockTimeSeconds <= 0 {
		return fmt.Errorf("pool.approx_block_time_seconds must be > 0")
	}

	// Backtest validation
	if _, err := c.StartTime(); err != nil {
		return fmt.Errorf("backtest.start_date: %w", err)
	}
	end, err := c.EndTime()
	if err != nil {
		return fmt.Errorf("backtest.end_date: %w", err)
	}
	start, _ := c.StartTime()
	if !start.Before(end) {
		return fmt.Errorf("backtest.start_date must be before end_date")
	}
	if c.Backtest.InitialCapital <= 0 {
		return fmt.Errorf("backtest.initial_capital must be > 0")
	}
	if c.Backtest.LowerBoundFactor <= 0 || c.Backtest.LowerBoundFactor >= 1 {
		return fmt.Errorf("backtest.lower_bound_factor must be in (0,1)")
	}
	if c.Backtest.UpperBoundFactor <= 1 {
		return fmt.Errorf("backtest.upper_bound_factor must be > 1")
	}
	if c.Backtest.BufferPct < 0 || c.Backtest.BufferPct >= 1 {
		return fmt.Errorf("backtest.buffer_pct must be in [0,1)")
	}
	if c.Backtest.WickThresholdPct <= 0 || c.Backtest.WickThresholdPct >= 1 {
		return fmt.Errorf("backtest.wick_threshold_pct must be in (0,1)")
	}
	if c.Backtest.WickLookbackH <= 0 {
		return fmt.Errorf("backtest.wick_lookback_hours must be > 0")
	}
	if c.Backtest.WickCooldownH <= 0 {
		return fmt.Errorf("backtest.wick_cooldown_hours must be > 0")
	}
	if c.Backtest.SlippageFactor < 0 || c.Backtest.SlippageFactor >= 1 {
		return fmt.Errorf("backtest.slippage_factor must be in [0,1)")
	}

	// Search validation
	if c.Search.ToleranceSeconds < 0 {
		return fmt.Errorf("search.tolerance_seconds must be >= 0")
	}
	if c.Search.MaxTries < 0 {
		return fmt.Errorf("search.max_tries must be >= 0")
	}

	// Storage validation
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("storage.driver must be 'memory' or 'postgres'")
	}

	return nil
}

// StartTime parses the configured start date as midnight UTC.
func (c *Config) StartTime() (time.Time, error) {
	return parseDate(c.Backtest.StartDate)
}

// EndTime parses the configured end date as midnight UTC.
func (c *Config) EndTime() (time.Time, error) {
	return parseDate(c.Backtest.EndDate)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD: %w", err)
	}
	return t.UTC(), nil
}
