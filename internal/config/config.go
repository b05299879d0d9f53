// Package config defines the top-level configuration for dexwatch and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by DEXWATCH_* environment variables.
type Config struct {
	Ethereum EthereumConfig `toml:"ethereum"`
	Redis    RedisConfig    `toml:"redis"`
	Server   ServerConfig   `toml:"server"`
	Chart    ChartConfig    `toml:"chart"`
	LogLevel string         `toml:"log_level"`
}

// EthereumConfig holds the chain endpoint and the watched contract addresses.
type EthereumConfig struct {
	// RPCURL must be a websocket endpoint (ws:// or wss://) so the client can
	// hold a live log subscription as well as issue filter queries.
	RPCURL          string `toml:"rpc_url"`
	ExchangeAddress string `toml:"exchange_address"`
	TokenAddress    string `toml:"token_address"`
}

// RedisConfig holds Redis connection parameters. An empty Addr disables Redis
// entirely; balance caching and pub/sub fan-out are skipped in that case.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// ChartConfig holds display parameters for the candlestick chart.
type ChartConfig struct {
	// Timezone is an IANA zone name used for hour bucketing and time labels,
	// e.g. "America/New_York". Defaults to UTC.
	Timezone string `toml:"timezone"`
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Ethereum: EthereumConfig{
			RPCURL: "ws://localhost:8545",
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Chart: ChartConfig{
			Timezone: "UTC",
		},
		LogLevel: "info",
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Location resolves the configured chart timezone. Call after Validate.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Chart.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Ethereum
	if c.Ethereum.RPCURL == "" {
		errs = append(errs, "ethereum: rpc_url must not be empty")
	} else if !strings.HasPrefix(c.Ethereum.RPCURL, "ws://") && !strings.HasPrefix(c.Ethereum.RPCURL, "wss://") {
		errs = append(errs, fmt.Sprintf("ethereum: rpc_url must be a websocket endpoint (ws:// or wss://), got %q", c.Ethereum.RPCURL))
	}
	if c.Ethereum.ExchangeAddress == "" {
		errs = append(errs, "ethereum: exchange_address must not be empty")
	} else if !common.IsHexAddress(c.Ethereum.ExchangeAddress) {
		errs = append(errs, fmt.Sprintf("ethereum: exchange_address %q is not a valid hex address", c.Ethereum.ExchangeAddress))
	}
	if c.Ethereum.TokenAddress == "" {
		errs = append(errs, "ethereum: token_address must not be empty")
	} else if !common.IsHexAddress(c.Ethereum.TokenAddress) {
		errs = append(errs, fmt.Sprintf("ethereum: token_address %q is not a valid hex address", c.Ethereum.TokenAddress))
	}

	// Redis — optional, but when configured the pool must be sane.
	if c.Redis.Addr != "" && c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	// Chart
	if c.Chart.Timezone == "" {
		errs = append(errs, "chart: timezone must not be empty")
	} else if _, err := time.LoadLocation(c.Chart.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("chart: timezone %q is not a valid IANA zone name", c.Chart.Timezone))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
