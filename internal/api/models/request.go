package models

import (
	"mm-backtest/internal/model"
	"mm-backtest/internal/sweep"
)

// BacktestRequest is the body for POST /api/v1/backtest. Ticks come either
// inline or from a server-side CSV path; inline wins when both are set.
type BacktestRequest struct {
	Config   AssetConfig     `json:"config" binding:"required"`
	Run      RunOverrides    `json:"run,omitempty"`
	Ticks    []model.Tick    `json:"ticks,omitempty"`
	DataPath string          `json:"data_path,omitempty"`
	Options  BacktestOptions `json:"options,omitempty"`
}

// SweepRequest is the body for POST /api/v1/sweep.
type SweepRequest struct {
	Config   AssetConfig  `json:"config" binding:"required"`
	Run      RunOverrides `json:"run,omitempty"`
	Ticks    []model.Tick `json:"ticks,omitempty"`
	DataPath string       `json:"data_path,omitempty"`
	Grid     sweep.Grid   `json:"grid,omitempty"`
	Workers  int          `json:"workers,omitempty"`
	Top      int          `json:"top,omitempty"` // 0 = all
}

// AssetConfig mirrors model.AssetConfig for request binding.
type AssetConfig struct {
	Asset                string  `json:"asset" binding:"required"`
	TickSize             float64 `json:"tick_size"`
	MinOrderNotional     float64 `json:"min_order_notional"`
	MaxInventoryNotional float64 `json:"max_inventory_notional"`
	BaseSpreadBps        float64 `json:"base_spread_bps"`
	VolatilityFraction   float64 `json:"volatility_fraction"`
	Regime               string  `json:"regime,omitempty"`
}

func (c AssetConfig) ToModel() model.AssetConfig {
	regime := c.Regime
	if regime == "" {
		regime = model.RegimeCalm
	}
	return model.AssetConfig{
		Asset:                c.Asset,
		TickSize:             c.TickSize,
		MinOrderNotional:     c.MinOrderNotional,
		MaxInventoryNotional: c.MaxInventoryNotional,
		BaseSpreadBps:        c.BaseSpreadBps,
		VolatilityFraction:   c.VolatilityFraction,
		Regime:               regime,
	}
}

// RunOverrides overlays non-zero fields onto the default run parameters.
type RunOverrides struct {
	MakerRebateRate     float64 `json:"maker_rebate_rate,omitempty"`
	TakerFeeRate        float64 `json:"taker_fee_rate,omitempty"`
	FillThreshold       float64 `json:"fill_threshold,omitempty"`
	QueueDepthFactor    float64 `json:"queue_depth_factor,omitempty"`
	TradeVolumeFraction float64 `json:"trade_volume_fraction,omitempty"`
	RegimeCadenceTicks  int     `json:"regime_cadence_ticks,omitempty"`
	MidWindowSize       int     `json:"mid_window_size,omitempty"`
	RegimeSampleSpan    int     `json:"regime_sample_span,omitempty"`
	CalmThreshold       float64 `json:"calm_threshold,omitempty"`
	ChaoticThreshold    float64 `json:"chaotic_threshold,omitempty"`
	InventoryTolerance  float64 `json:"inventory_tolerance,omitempty"`
	GridSizeFloor       float64 `json:"grid_size_floor,omitempty"`
}

// Apply merges the overrides onto p.
func (r RunOverrides) Apply(p model.RunParams) model.RunParams {
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

// BacktestOptions tunes what a single run returns.
type BacktestOptions struct {
	LimitTicks   int  `json:"limit_ticks,omitempty"`   // 0 = all
	IncludeFills bool `json:"include_fills,omitempty"` // default: false
	Archive      bool `json:"archive,omitempty"`       // persist when a store is configured
}
