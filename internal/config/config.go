// Package config exposes strongly typed engine configuration loaded from YAML.
// Every numeric trading threshold lives here rather than in code: the source
// strategies disagree on exact constants, so they are all tunable.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings such as name, metrics address,
// and logging level.
type App struct {
	Name        string `yaml:"name"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Instrument groups the per-instrument parameter table: position limit,
// signal tuning, quoting behaviour, and the optional basket or voucher
// definition that enables cross-instrument arbitrage.
type Instrument struct {
	PositionLimit    int     `yaml:"position_limit"`
	Alpha            float64 `yaml:"alpha"`
	SpreadFactor     float64 `yaml:"spread_factor"`
	TrendFactor      float64 `yaml:"trend_factor"`
	MeanReversion    bool    `yaml:"mean_reversion"`
	VolatilityScale  float64 `yaml:"volatility_scale"`
	MinSpread        int     `yaml:"min_spread"`
	TakeWidth        float64 `yaml:"take_width"`
	AggressiveEdge   float64 `yaml:"aggressive_edge"`
	RiskAversion     float64 `yaml:"risk_aversion"`
	MaxPositionScale float64 `yaml:"max_position_scale"`

	// ArbOnly restricts the instrument to the arbitrage pass: no directional
	// taking or quoting. Typical for derivatives priced off another book.
	ArbOnly bool `yaml:"arb_only,omitempty"`

	// Basket maps component symbol to quantity per basket lot. Only set for
	// composite instruments.
	Basket map[string]int `yaml:"basket,omitempty"`

	// Strike and Underlying describe a voucher-style derivative priced off
	// another instrument. Only set for derivative instruments.
	Strike     int    `yaml:"strike,omitempty"`
	Underlying string `yaml:"underlying,omitempty"`
}

// Signal holds the tunables of the signal engine shared by all instruments.
type Signal struct {
	HistoryLength      int     `yaml:"history_length"`
	MinVolatility      float64 `yaml:"min_volatility"`
	RegimeWindow       int     `yaml:"regime_window"`
	VolatileThreshold  float64 `yaml:"volatile_threshold"`
	VolatileConfirm    float64 `yaml:"volatile_confirm"`
	DeviationThreshold float64 `yaml:"deviation_threshold"`
	DeviationConfirm   float64 `yaml:"deviation_confirm"`
	TrendStrengthMin   float64 `yaml:"trend_strength_min"`
	TrendScaleTrending float64 `yaml:"trend_scale_trending"`
	TrendScaleMeanRev  float64 `yaml:"trend_scale_mean_rev"`
}

// Tuning holds the regime-dependent strategy scalars shared by order taking
// and quoting across all instruments.
type Tuning struct {
	TakeWidthVolatileScale float64 `yaml:"take_width_volatile_scale"`
	TakeWidthTrendingScale float64 `yaml:"take_width_trending_scale"`
	TakeWidthMeanRevScale  float64 `yaml:"take_width_mean_rev_scale"`
	TakeWidthVolCoeff      float64 `yaml:"take_width_vol_coeff"`
	SpreadVolatileScale    float64 `yaml:"spread_volatile_scale"`
	SpreadTrendingScale    float64 `yaml:"spread_trending_scale"`
	SpreadMeanRevScale     float64 `yaml:"spread_mean_rev_scale"`
	SpreadDrawdownScale    float64 `yaml:"spread_drawdown_scale"`
	TrendBiasWeight        float64 `yaml:"trend_bias_weight"`
	InventoryBiasWeight    float64 `yaml:"inventory_bias_weight"`
	BiasDamping            float64 `yaml:"bias_damping"`
}

// Arbitrage encodes the basket and voucher arbitrage thresholds.
type Arbitrage struct {
	MinProfitPerLot      float64 `yaml:"min_profit_per_lot"`
	MaxLotsPerTick       int     `yaml:"max_lots_per_tick"`
	BasketDiscount       float64 `yaml:"basket_discount"`
	VoucherPremiumFactor float64 `yaml:"voucher_premium_factor"`
	DaysToExpiry         int     `yaml:"days_to_expiry"`
}

// Drawdown configures the defensive sizing monitor.
type Drawdown struct {
	WindowSize      int     `yaml:"window_size"`
	Threshold       float64 `yaml:"threshold"`
	ReductionFactor float64 `yaml:"reduction_factor"`
	RecoveryFactor  float64 `yaml:"recovery_factor"`
	MaxTicks        int     `yaml:"max_ticks"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App         App                   `yaml:"app"`
	Signal      Signal                `yaml:"signal"`
	Tuning      Tuning                `yaml:"tuning"`
	Arbitrage   Arbitrage             `yaml:"arbitrage"`
	Drawdown    Drawdown              `yaml:"drawdown"`
	Defaults    Instrument            `yaml:"defaults"`
	Instruments map[string]Instrument `yaml:"instruments"`
}

// Load reads a YAML file from disk, hydrates a Config struct on top of the
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	cfg := Default()
	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Default returns a config populated with the baseline parameter set used
// when an instrument (or the whole file) does not override it.
func Default() *Config {
	return &Config{
		App: App{
			Name:        "basketbot",
			MetricsAddr: ":9109",
			LogLevel:    "info",
		},
		Signal: Signal{
			HistoryLength:      20,
			MinVolatility:      0.01,
			RegimeWindow:       8,
			VolatileThreshold:  0.025,
			VolatileConfirm:    0.035,
			DeviationThreshold: 0.015,
			DeviationConfirm:   0.025,
			TrendStrengthMin:   0.5,
			TrendScaleTrending: 1.7,
			TrendScaleMeanRev:  0.4,
		},
		Tuning: Tuning{
			TakeWidthVolatileScale: 1.4,
			TakeWidthTrendingScale: 0.7,
			TakeWidthMeanRevScale:  0.75,
			TakeWidthVolCoeff:      80,
			SpreadVolatileScale:    1.4,
			SpreadTrendingScale:    0.8,
			SpreadMeanRevScale:     1.1,
			SpreadDrawdownScale:    1.3,
			TrendBiasWeight:        0.3,
			InventoryBiasWeight:    0.7,
			BiasDamping:            0.5,
		},
		Arbitrage: Arbitrage{
			MinProfitPerLot:      1,
			MaxLotsPerTick:       10,
			BasketDiscount:       0.97,
			VoucherPremiumFactor: 1.1,
			DaysToExpiry:         4,
		},
		Drawdown: Drawdown{
			WindowSize:      8,
			Threshold:       0.04,
			ReductionFactor: 0.6,
			RecoveryFactor:  0.3,
			MaxTicks:        10,
		},
		Defaults: Instrument{
			PositionLimit:    20,
			Alpha:            0.35,
			SpreadFactor:     0.6,
			TrendFactor:      0.6,
			MeanReversion:    true,
			VolatilityScale:  1.2,
			MinSpread:        1,
			TakeWidth:        2,
			AggressiveEdge:   0.6,
			RiskAversion:     0.4,
			MaxPositionScale: 1.0,
		},
		Instruments: map[string]Instrument{},
	}
}

// Params returns the parameter table entry for a symbol, falling back to the
// defaults for unknown instruments and for any zero-valued field.
func (c *Config) Params(symbol string) Instrument {
	params, ok := c.Instruments[symbol]
	if !ok {
		return c.Defaults
	}
	return fillDefaults(params, c.Defaults)
}

// Limit returns the position limit for a symbol.
func (c *Config) Limit(symbol string) int {
	return c.Params(symbol).PositionLimit
}

// Validate rejects configs the engine cannot safely run with.
func (c *Config) Validate() error {
	if c.Signal.HistoryLength < 2 {
		return fmt.Errorf("signal.history_length must be >= 2, got %d", c.Signal.HistoryLength)
	}
	if c.Drawdown.WindowSize <= 0 {
		return fmt.Errorf("drawdown.window_size must be positive, got %d", c.Drawdown.WindowSize)
	}
	if c.Drawdown.ReductionFactor <= 0 || c.Drawdown.ReductionFactor > 1 {
		return fmt.Errorf("drawdown.reduction_factor must be in (0,1], got %.2f", c.Drawdown.ReductionFactor)
	}
	if c.Arbitrage.BasketDiscount <= 0 {
		return fmt.Errorf("arbitrage.basket_discount must be positive, got %.2f", c.Arbitrage.BasketDiscount)
	}
	if c.Tuning.TakeWidthVolatileScale <= 0 || c.Tuning.TakeWidthTrendingScale <= 0 || c.Tuning.TakeWidthMeanRevScale <= 0 {
		return fmt.Errorf("tuning: take width scales must be positive")
	}
	if c.Tuning.SpreadVolatileScale <= 0 || c.Tuning.SpreadTrendingScale <= 0 || c.Tuning.SpreadMeanRevScale <= 0 || c.Tuning.SpreadDrawdownScale <= 0 {
		return fmt.Errorf("tuning: spread scales must be positive")
	}
	if err := validateInstrument("defaults", c.Defaults); err != nil {
		return err
	}
	for symbol, params := range c.Instruments {
		if err := validateInstrument(symbol, fillDefaults(params, c.Defaults)); err != nil {
			return err
		}
		for component, qty := range params.Basket {
			if qty < 0 {
				return fmt.Errorf("instrument %s: basket quantity for %s must be non-negative", symbol, component)
			}
		}
		if params.Strike > 0 && params.Underlying == "" {
			return fmt.Errorf("instrument %s: strike set without underlying", symbol)
		}
	}
	return nil
}

func validateInstrument(symbol string, params Instrument) error {
	if params.PositionLimit < 0 {
		return fmt.Errorf("instrument %s: position_limit must be non-negative", symbol)
	}
	if params.Alpha <= 0 || params.Alpha >= 1 {
		return fmt.Errorf("instrument %s: alpha must be in (0,1), got %.2f", symbol, params.Alpha)
	}
	if params.MinSpread < 1 {
		return fmt.Errorf("instrument %s: min_spread must be >= 1, got %d", symbol, params.MinSpread)
	}
	if params.MaxPositionScale <= 0 || params.MaxPositionScale > 1 {
		return fmt.Errorf("instrument %s: max_position_scale must be in (0,1], got %.2f", symbol, params.MaxPositionScale)
	}
	return nil
}

func fillDefaults(params, defaults Instrument) Instrument {
	if params.PositionLimit == 0 {
		params.PositionLimit = defaults.PositionLimit
	}
	if params.Alpha == 0 {
		params.Alpha = defaults.Alpha
	}
	if params.SpreadFactor == 0 {
		params.SpreadFactor = defaults.SpreadFactor
	}
	if params.TrendFactor == 0 {
		params.TrendFactor = defaults.TrendFactor
	}
	if params.VolatilityScale == 0 {
		params.VolatilityScale = defaults.VolatilityScale
	}
	if params.MinSpread == 0 {
		params.MinSpread = defaults.MinSpread
	}
	if params.TakeWidth == 0 {
		params.TakeWidth = defaults.TakeWidth
	}
	if params.AggressiveEdge == 0 {
		params.AggressiveEdge = defaults.AggressiveEdge
	}
	if params.RiskAversion == 0 {
		params.RiskAversion = defaults.RiskAversion
	}
	if params.MaxPositionScale == 0 {
		params.MaxPositionScale = defaults.MaxPositionScale
	}
	return params
}
