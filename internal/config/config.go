// Package config loads and validates the typed YAML configuration, in the
// validate-then-cascade style of internal/config/providers.go's
// ProvidersConfig — durations are stored as plain seconds in YAML and
// exposed as time.Duration via Get* accessors, mirroring
// ProviderConfig.GetCacheTTL/GetRequestTimeout.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sawpanic/arbitrageur/internal/allocator"
)

// VenueConfig toggles and sizes one connector.
type VenueConfig struct {
	Enabled bool     `yaml:"enabled"`
	Symbols []string `yaml:"symbols"`
	FeeBps  float64  `yaml:"fee_bps"`

	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
}

// AllocationBreakpoint is the YAML form of allocator.Breakpoint.
type AllocationBreakpoint struct {
	PremiumPct    float64 `yaml:"premium_pct"`
	AllocationPct float64 `yaml:"allocation_pct"`
	Action        string  `yaml:"action"`
}

// Config is the root configuration document.
type Config struct {
	Venues map[string]VenueConfig `yaml:"venues"`

	TradingSymbols []string `yaml:"trading_symbols"`

	DetectIntervalSecs         int `yaml:"detect_interval_secs"`
	ConnectorTimeoutSecs       int `yaml:"connector_timeout_secs"`
	SubscriberWriteTimeoutSecs int `yaml:"subscriber_write_timeout_secs"`
	FxRefreshIntervalSecs      int `yaml:"fx_refresh_interval_secs"`
	MaxTickerAgeSecs           int `yaml:"max_ticker_age_secs"`
	AlertTTLSecs               int `yaml:"alert_ttl_secs"`
	LastGoodTTLSecs            int `yaml:"last_good_ttl_secs"`

	MinOIUSD             float64 `yaml:"min_oi_usd"`
	MinFunding8hPct      float64 `yaml:"min_funding_8h_pct"`
	MinBasisBps          float64 `yaml:"min_basis_bps"`
	MinSpreadBps         float64 `yaml:"min_spread_bps"`
	MinKimchiPct         float64 `yaml:"min_kimchi_pct"`
	MaxCombinedSpreadBps float64 `yaml:"max_combined_spread_bps"`
	DefaultFeeBps        float64 `yaml:"default_fee_bps"`
	SlippageBps          float64 `yaml:"slippage_bps"`
	MaxOpportunities     int     `yaml:"max_opportunities"`

	TetherTotalEquityUSD float64                `yaml:"tether_total_equity_usd"`
	AllocationCurve      []AllocationBreakpoint `yaml:"allocation_curve"`
	FxFallbackKRWPerUSD  float64                `yaml:"fx_fallback_krw_per_usd"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	HTTPPort int `yaml:"http_port"`
}

// Default returns a Config populated with spec.md §6's documented defaults.
func Default() *Config {
	return &Config{
		Venues:                     map[string]VenueConfig{},
		DetectIntervalSecs:         3,
		ConnectorTimeoutSecs:       5,
		SubscriberWriteTimeoutSecs: 2,
		FxRefreshIntervalSecs:      60,
		MaxTickerAgeSecs:           10,
		AlertTTLSecs:               60,
		LastGoodTTLSecs:            30,
		MinOIUSD:                   100_000,
		MinFunding8hPct:            0.01,
		MinBasisBps:                10,
		MinSpreadBps:               5,
		MinKimchiPct:               1,
		MaxCombinedSpreadBps:       20,
		DefaultFeeBps:              10,
		SlippageBps:                2,
		MaxOpportunities:           200,
		FxFallbackKRWPerUSD:        1450,
		HTTPPort:                   8080,
	}
}

// Load reads and validates a YAML config file, merging it onto Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate enforces the invariants each component relies on.
func (c *Config) Validate() error {
	if c.DetectIntervalSecs <= 0 {
		return fmt.Errorf("detect_interval_secs must be positive")
	}
	if c.ConnectorTimeoutSecs <= 0 {
		return fmt.Errorf("connector_timeout_secs must be positive")
	}
	if c.MaxOpportunities <= 0 {
		return fmt.Errorf("max_opportunities must be positive")
	}
	if c.FxFallbackKRWPerUSD < 1000 || c.FxFallbackKRWPerUSD > 2000 {
		return fmt.Errorf("fx_fallback_krw_per_usd %.2f must fall within the [1000, 2000] sanity band", c.FxFallbackKRWPerUSD)
	}
	for i, bp := range c.AllocationCurve {
		if bp.Action != "BUY_KRW" && bp.Action != "SELL_KRW" && bp.Action != "FLAT" {
			return fmt.Errorf("allocation_curve[%d]: invalid action %q", i, bp.Action)
		}
	}
	return nil
}

// GetDetectInterval returns the detection tick interval as a time.Duration.
func (c *Config) GetDetectInterval() time.Duration {
	return time.Duration(c.DetectIntervalSecs) * time.Second
}

// GetConnectorTimeout returns the per-connector refresh timeout.
func (c *Config) GetConnectorTimeout() time.Duration {
	return time.Duration(c.ConnectorTimeoutSecs) * time.Second
}

// GetSubscriberWriteTimeout returns the broadcast hub's write deadline.
func (c *Config) GetSubscriberWriteTimeout() time.Duration {
	return time.Duration(c.SubscriberWriteTimeoutSecs) * time.Second
}

// GetFxRefreshInterval returns the FX resolver's own refresh period.
func (c *Config) GetFxRefreshInterval() time.Duration {
	return time.Duration(c.FxRefreshIntervalSecs) * time.Second
}

// GetMaxTickerAge returns the freshness gate's max ticker age.
func (c *Config) GetMaxTickerAge() time.Duration {
	return time.Duration(c.MaxTickerAgeSecs) * time.Second
}

// GetAlertTTL returns the alert tracker's never-closed expiry.
func (c *Config) GetAlertTTL() time.Duration {
	return time.Duration(c.AlertTTLSecs) * time.Second
}

// GetLastGoodTTL returns how long the broadcast hub serves a stale snapshot.
func (c *Config) GetLastGoodTTL() time.Duration {
	return time.Duration(c.LastGoodTTLSecs) * time.Second
}

// BuildCurve converts the YAML breakpoints into a validated allocator.Curve.
func (c *Config) BuildCurve() (*allocator.Curve, error) {
	points := make([]allocator.Breakpoint, len(c.AllocationCurve))
	for i, bp := range c.AllocationCurve {
		points[i] = allocator.Breakpoint{
			PremiumPct:    bp.PremiumPct,
			AllocationPct: bp.AllocationPct,
			Action:        allocator.Action(bp.Action),
		}
	}
	return allocator.NewCurve(points)
}

// VenueFeeBps collects each venue's configured fee, keyed by venue name.
// Venues with no override fall back to DefaultFeeBps in opportunity.Gates.
func (c *Config) VenueFeeBps() map[string]float64 {
	out := make(map[string]float64, len(c.Venues))
	for name, v := range c.Venues {
		if v.FeeBps > 0 {
			out[name] = v.FeeBps
		}
	}
	return out
}
