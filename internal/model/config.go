package model

import "errors"

// Regime labels shared by the asset config and the governor.
const (
	RegimeCalm      = "calm"
	RegimeUncertain = "uncertain"
	RegimeHalt      = "halt"
)

// AssetConfig is the immutable per-run quoting configuration for one asset.
// Units:
// - TickSize: smallest valid price increment, > 0
// - MinOrderNotional / MaxInventoryNotional: USD notional
// - BaseSpreadBps: L1 half-spread in basis points at neutral inventory
// - VolatilityFraction: volatility proxy as a fraction of price (e.g. 0.002)
type AssetConfig struct {
	Asset                string  `json:"asset"`
	TickSize             float64 `json:"tick_size"`
	MinOrderNotional     float64 `json:"min_order_notional"`
	MaxInventoryNotional float64 `json:"max_inventory_notional"`
	BaseSpreadBps        float64 `json:"base_spread_bps"`
	VolatilityFraction   float64 `json:"volatility_fraction"`
	Regime               string  `json:"regime"`
}

// Validate fails fast before any tick is processed; a malformed config would
// silently produce a meaningless simulation.
func (c AssetConfig) Validate() error {
	if c.Asset == "" {
		return errors.New("asset is required")
	}
	if c.TickSize <= 0 {
		return errors.New("tick_size must be > 0")
	}
	if c.MinOrderNotional <= 0 {
		return errors.New("min_order_notional must be > 0")
	}
	if c.MaxInventoryNotional <= 0 {
		return errors.New("max_inventory_notional must be > 0")
	}
	if c.BaseSpreadBps < 0 {
		return errors.New("base_spread_bps must be >= 0")
	}
	switch c.Regime {
	case "", RegimeCalm, RegimeUncertain, RegimeHalt:
	default:
		return errors.New("regime must be calm, uncertain, or halt")
	}
	return nil
}

// RunParams bundles every constant the replay loop depends on. These were
// module-level globals in an earlier incarnation; making them explicit run
// state keeps parallel sweeps with different constants safe.
type RunParams struct {
	// MakerRebateRate is credited per fill as rebate = notional * rate.
	MakerRebateRate float64
	// TakerFeeRate prices the informational cost of flattening residual
	// inventory at the end of a run. It never enters TotalPnL.
	TakerFeeRate float64
	// FillThreshold gates execution on the estimator's fill probability.
	FillThreshold float64
	// QueueDepthFactor encodes the assumption that our order sits mid-queue.
	QueueDepthFactor float64
	// TradeVolumeFraction sizes each synthetic taker event as a fraction of
	// the minimum order notional.
	TradeVolumeFraction float64
	// RegimeCadenceTicks is how often the governor recomputes.
	RegimeCadenceTicks int
	// MidWindowSize bounds the governor's rolling mid-price window.
	MidWindowSize int
	// RegimeSampleSpan is how many recent mids a recompute looks at.
	RegimeSampleSpan int
	// CalmThreshold / ChaoticThreshold bracket the average absolute return.
	CalmThreshold    float64
	ChaoticThreshold float64
	// InventoryTolerance is the cap overshoot multiplier; a fill that would
	// push inventory past cap * tolerance is rejected and the level cancelled.
	InventoryTolerance float64
	// GridSizeFloor is the minimum L1 notional regardless of config.
	GridSizeFloor float64
}

// DefaultRunParams mirrors the production engine's constants so backtest
// results stay predictive of live behavior.
func DefaultRunParams() RunParams {
	return RunParams{
		MakerRebateRate:     0.0001,
		TakerFeeRate:        0.00035,
		FillThreshold:       0.70,
		QueueDepthFactor:    2.0,
		TradeVolumeFraction: 0.5,
		RegimeCadenceTicks:  100,
		MidWindowSize:       300,
		RegimeSampleSpan:    100,
		CalmThreshold:       0.0015,
		ChaoticThreshold:    0.005,
		InventoryTolerance:  1.1,
		GridSizeFloor:       12.0,
	}
}

func (p RunParams) Validate() error {
	if p.FillThreshold <= 0 || p.FillThreshold > 1 {
		return errors.New("fill_threshold must be in (0, 1]")
	}
	if p.QueueDepthFactor <= 0 {
		return errors.New("queue_depth_factor must be > 0")
	}
	if p.TradeVolumeFraction <= 0 {
		return errors.New("trade_volume_fraction must be > 0")
	}
	if p.RegimeCadenceTicks <= 0 || p.MidWindowSize <= 0 || p.RegimeSampleSpan <= 0 {
		return errors.New("regime cadence, window, and sample span must be > 0")
	}
	if p.CalmThreshold <= 0 || p.ChaoticThreshold <= p.CalmThreshold {
		return errors.New("thresholds must satisfy 0 < calm < chaotic")
	}
	if p.InventoryTolerance < 1 {
		return errors.New("inventory_tolerance must be >= 1")
	}
	if p.MakerRebateRate < 0 || p.TakerFeeRate < 0 {
		return errors.New("fee rates must be >= 0")
	}
	return nil
}
