package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies DEXWATCH_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known DEXWATCH_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject endpoints at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Ethereum ──
	setStr(&cfg.Ethereum.RPCURL, "DEXWATCH_ETHEREUM_RPC_URL")
	setStr(&cfg.Ethereum.ExchangeAddress, "DEXWATCH_ETHEREUM_EXCHANGE_ADDRESS")
	setStr(&cfg.Ethereum.TokenAddress, "DEXWATCH_ETHEREUM_TOKEN_ADDRESS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "DEXWATCH_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "DEXWATCH_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "DEXWATCH_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "DEXWATCH_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "DEXWATCH_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "DEXWATCH_REDIS_TLS_ENABLED")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "DEXWATCH_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "DEXWATCH_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "DEXWATCH_SERVER_CORS_ORIGINS")

	// ── Chart ──
	setStr(&cfg.Chart.Timezone, "DEXWATCH_CHART_TIMEZONE")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "DEXWATCH_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
