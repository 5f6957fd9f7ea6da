package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"mm-backtest/internal/model"
	"mm-backtest/internal/sweep"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	Asset AssetConfig `yaml:"asset"`
	// Run overrides default run parameters field by field; zero-valued
	// fields keep the defaults.
	Run RunConfig `yaml:"run"`
	// Sweep lists the parameter values a sweep crosses. Optional.
	Sweep sweep.Grid `yaml:"sweep"`
}

type AssetConfig struct {
	Asset                string  `yaml:"asset"`
	TickSize             float64 `yaml:"tick_size"`
	MinOrderNotional     float64 `yaml:"min_order_notional"`
	MaxInventoryNotional float64 `yaml:"max_inventory_notional"`
	BaseSpreadBps        float64 `yaml:"base_spread_bps"`
	VolatilityFraction   float64 `yaml:"volatility_fraction"`
	Regime               string  `yaml:"regime"`
}

type RunConfig struct {
	MakerRebateRate     float64 `yaml:"maker_rebate_rate"`
	TakerFeeRate        float64 `yaml:"taker_fee_rate"`
	FillThreshold       float64 `yaml:"fill_threshold"`
	QueueDepthFactor    float64 `yaml:"queue_depth_factor"`
	TradeVolumeFraction float64 `yaml:"trade_volume_fraction"`
	RegimeCadenceTicks  int     `yaml:"regime_cadence_ticks"`
	MidWindowSize       int     `yaml:"mid_window_size"`
	RegimeSampleSpan    int     `yaml:"regime_sample_span"`
	CalmThreshold       float64 `yaml:"calm_threshold"`
	ChaoticThreshold    float64 `yaml:"chaotic_threshold"`
	InventoryTolerance  float64 `yaml:"inventory_tolerance"`
	GridSizeFloor       float64 `yaml:"grid_size_floor"`
}

// Load reads, defaults, and validates a config file.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if c.Asset.Regime == "" {
		c.Asset.Regime = model.RegimeCalm
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads without validating. Useful for printing partial
// configs while debugging.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if err := c.AssetModel().Validate(); err != nil {
		return fmt.Errorf("asset config invalid: %w", err)
	}
	if err := c.RunParams().Validate(); err != nil {
		return fmt.Errorf("run config invalid: %w", err)
	}
	return nil
}

func (c *Config) AssetModel() model.AssetConfig {
	return model.AssetConfig{
		Asset:                c.Asset.Asset,
		TickSize:             c.Asset.TickSize,
		MinOrderNotional:     c.Asset.MinOrderNotional,
		MaxInventoryNotional: c.Asset.MaxInventoryNotional,
		BaseSpreadBps:        c.Asset.BaseSpreadBps,
		VolatilityFraction:   c.Asset.VolatilityFraction,
		Regime:               c.Asset.Regime,
	}
}

// RunParams overlays non-zero file values onto the production defaults, so
// partial run sections stay concise.
func (c *Config) RunParams() model.RunParams {
	p := model.DefaultRunParams()
	r := c.Run
	if r.MakerRebateRate != 0 {
		p.MakerRebateRate = r.MakerRebateRate
	}
	if r.TakerFeeRate != 0 {
		p.TakerFeeRate = r.TakerFeeRate
	}
	if r.FillThreshold != 0 {
		p.FillThreshold = r.FillThreshold
	}
	if r.QueueDepthFactor != 0 {
		p.QueueDepthFactor = r.QueueDepthFactor
	}
	if r.TradeVolumeFraction != 0 {
		p.TradeVolumeFraction = r.TradeVolumeFraction
	}
	if r.RegimeCadenceTicks != 0 {
		p.RegimeCadenceTicks = r.RegimeCadenceTicks
	}
	if r.MidWindowSize != 0 {
		p.MidWindowSize = r.MidWindowSize
	}
	if r.RegimeSampleSpan != 0 {
		p.RegimeSampleSpan = r.RegimeSampleSpan
	}
	if r.CalmThreshold != 0 {
		p.CalmThreshold = r.CalmThreshold
	}
	if r.ChaoticThreshold != 0 {
		p.ChaoticThreshold = r.ChaoticThreshold
	}
	if r.InventoryTolerance != 0 {
		p.InventoryTolerance = r.InventoryTolerance
	}
	if r.GridSizeFloor != 0 {
		p.GridSizeFloor = r.GridSizeFloor
	}
	return p
}

// SweepGrid returns the configured grid, falling back to the default ranges.
func (c *Config) SweepGrid() sweep.Grid {
	g := c.Sweep
	if len(g.SpreadBps) == 0 && len(g.MaxInventory) == 0 && len(g.MinOrderNotional) == 0 {
		return sweep.DefaultGrid()
	}
	return g
}
