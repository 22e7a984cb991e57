// Package config loads the engine's run configuration: exchange
// credentials and connection settings from the environment (same
// getEnv/getEnvInt/getEnvFloat/getEnvBool helpers the bot has always
// used), plus the run/replay options -- symbol, user, date window,
// starting balance, market type, starting strategy parameters, base
// directory, periodic-gain window and optimizer ranges.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/kasyap1234/gridcore/internal/params"
)

// MarketType selects the instrument family a run trades.
type MarketType string

const (
	MarketFutures MarketType = "futures"
	MarketSpot    MarketType = "spot"
)

// Config holds all configuration for a live or replay run.
type Config struct {
	// Delta Exchange API
	APIKey          string
	APISecret       string
	BaseURL         string
	WebSocketURL    string
	IsTestnet       bool
	APIRateLimitRPS int

	// Run identity and window
	Symbol          string
	User            string
	StartDate       time.Time
	EndDate         time.Time
	StartingBalance float64
	MarketType      MarketType

	// StartingConfigs points at the JSON file holding the
	// StrategyParams bundle this run starts from.
	StartingConfigs string
	BaseDir         string

	PeriodicGainDays float64

	// Ranges bound the optimizer's search per parameter name, e.g.
	// Ranges["pbr_limit"] = [lo, hi].
	Ranges map[string][2]float64
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		APIKey:          getEnv("DELTA_API_KEY", ""),
		APISecret:       getEnv("DELTA_API_SECRET", ""),
		IsTestnet:       getEnvBool("DELTA_TESTNET", true),
		APIRateLimitRPS: getEnvInt("DELTA_API_RATE_LIMIT_RPS", 8),

		Symbol:          getEnv("SYMBOL", "BTCUSD"),
		User:            getEnv("USER_NAME", "default"),
		StartingBalance: getEnvFloat("STARTING_BALANCE", 1000),
		MarketType:      MarketType(getEnv("MARKET_TYPE", string(MarketFutures))),
		StartingConfigs: getEnv("STARTING_CONFIGS", ""),
		BaseDir:         getEnv("BASE_DIR", "."),

		PeriodicGainDays: getEnvFloat("PERIODIC_GAIN_N_DAYS", 7),

		Ranges: map[string][2]float64{},
	}

	if cfg.IsTestnet {
		cfg.BaseURL = "https://cdn-ind.testnet.deltaex.org/v2"
		cfg.WebSocketURL = "wss://socket-ind.testnet.deltaex.org"
	} else {
		cfg.BaseURL = "https://api.india.delta.exchange/v2"
		cfg.WebSocketURL = "wss://socket.india.delta.exchange"
	}

	if v := getEnv("START_DATE", ""); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, fmt.Errorf("invalid START_DATE: %w", err)
		}
		cfg.StartDate = t
	}
	if v := getEnv("END_DATE", ""); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, fmt.Errorf("invalid END_DATE: %w", err)
		}
		cfg.EndDate = t
	}

	if cfg.MarketType != MarketFutures && cfg.MarketType != MarketSpot {
		return nil, fmt.Errorf("unknown market_type %q", cfg.MarketType)
	}

	return cfg, nil
}

// strategyFile mirrors the JSON shape of a starting_configs file.
type strategyFile struct {
	Kind   string              `json:"kind"` // "ema_band" or "scalp"
	DoLong bool                `json:"do_long"`
	DoShrt bool                `json:"do_shrt"`
	Ema    *params.EmaParams   `json:"ema,omitempty"`
	Scalp  *params.ScalpParams `json:"scalp,omitempty"`
}

// LoadStrategyParams reads StartingConfigs into a params.StrategyParams
// bundle. Spot runs are forced long-only per the spot override on the
// order-generation side.
func (c *Config) LoadStrategyParams() (params.StrategyParams, error) {
	var out params.StrategyParams
	if c.StartingConfigs == "" {
		return out, fmt.Errorf("starting_configs not set")
	}
	data, err := os.ReadFile(c.StartingConfigs)
	if err != nil {
		return out, fmt.Errorf("reading starting_configs: %w", err)
	}
	var sf strategyFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return out, fmt.Errorf("parsing starting_configs: %w", err)
	}

	switch sf.Kind {
	case "scalp":
		out.Kind = params.KindScalp
		if sf.Scalp != nil {
			out.Scalp = *sf.Scalp
		}
	default:
		out.Kind = params.KindEmaBand
		if sf.Ema != nil {
			out.Ema = *sf.Ema
		}
	}
	out.DoLong = sf.DoLong
	out.DoShrt = sf.DoShrt

	if c.MarketType == MarketSpot {
		out.DoLong = true
		out.DoShrt = false
	}
	return out, nil
}

// RangeFor returns the optimizer bounds configured for a parameter
// name, and whether one was set.
func (c *Config) RangeFor(name string) (lo, hi float64, ok bool) {
	r, ok := c.Ranges[name]
	if !ok {
		return 0, 0, false
	}
	return r[0], r[1], true
}

// SetRange records an optimizer bound for a parameter name, clamping
// the high end to maxLeverage when name is "pbr_limit" so a configured
// range can never imply more leverage than the market allows.
func (c *Config) SetRange(name string, lo, hi, maxLeverage float64) {
	if name == "pbr_limit" && maxLeverage > 0 && hi > maxLeverage {
		hi = maxLeverage
	}
	if c.Ranges == nil {
		c.Ranges = map[string][2]float64{}
	}
	c.Ranges[name] = [2]float64{lo, hi}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
