package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.Ethereum.RPCURL = "ws://localhost:8545"
	cfg.Ethereum.ExchangeAddress = "0x0000000000000000000000000000000000ec0000"
	cfg.Ethereum.TokenAddress = "0x0000000000000000000000000000000000da0000"
	return cfg
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsHTTPEndpoint(t *testing.T) {
	cfg := validConfig()
	cfg.Ethereum.RPCURL = "http://localhost:8545"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "websocket")
}

func TestValidateRejectsBadAddresses(t *testing.T) {
	cfg := validConfig()
	cfg.Ethereum.ExchangeAddress = "not-an-address"
	cfg.Ethereum.TokenAddress = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exchange_address")
	assert.Contains(t, err.Error(), "token_address")
}

func TestValidateRejectsUnknownTimezone(t *testing.T) {
	cfg := validConfig()
	cfg.Chart.Timezone = "Mars/Olympus_Mons"
	require.Error(t, cfg.Validate())
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := validConfig()
	cfg.Chart.Timezone = "garbage"
	assert.Equal(t, "UTC", cfg.Location().String())

	cfg.Chart.Timezone = "America/New_York"
	assert.Equal(t, "America/New_York", cfg.Location().String())
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	data := `
log_level = "debug"

[ethereum]
rpc_url = "wss://node.example.com"
exchange_address = "0x0000000000000000000000000000000000ec0000"
token_address = "0x0000000000000000000000000000000000da0000"

[chart]
timezone = "America/Chicago"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	t.Setenv("DEXWATCH_CHART_TIMEZONE", "Asia/Kolkata")
	t.Setenv("DEXWATCH_SERVER_PORT", "9000")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "wss://node.example.com", cfg.Ethereum.RPCURL)
	assert.Equal(t, "Asia/Kolkata", cfg.Chart.Timezone, "env must win over file")
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr, "defaults survive merge")
	require.NoError(t, cfg.Validate())
}
