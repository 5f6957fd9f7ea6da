package backtest

import "mm-backtest/internal/model"

// Result is the immutable summary of one backtest run. It is the primary
// artifact for "what happened": serializable to JSON and flat CSV rows so
// runs can be compared and archived.
type Result struct {
	Asset string `json:"asset"`

	TicksProcessed int `json:"ticks_processed"`
	TicksSkipped   int `json:"ticks_skipped"`
	HaltedTicks    int `json:"halted_ticks"`

	TotalFills int `json:"total_fills"`
	BidFills   int `json:"bid_fills"`
	AskFills   int `json:"ask_fills"`

	TotalVolume  float64 `json:"total_volume"`
	TotalRebates float64 `json:"total_rebates"`
	SpreadPnL    float64 `json:"spread_pnl"`
	// InventoryPnL marks any residual position to the last observed mid;
	// unrealized by construction.
	InventoryPnL float64 `json:"inventory_pnl"`
	TotalPnL     float64 `json:"total_pnl"`
	// FlattenCost is the informational taker fee to close the residual
	// position; reported alongside but never part of TotalPnL.
	FlattenCost float64 `json:"flatten_cost"`

	MaxDrawdown   float64 `json:"max_drawdown"`
	MaxInventory  float64 `json:"max_inventory"`
	SharpeRatio   float64 `json:"sharpe_ratio"`
	FillsPerHour  float64 `json:"fills_per_hour"`
	HaltedPct     float64 `json:"halted_pct"`
	DurationHours float64 `json:"duration_hours"`

	// Config echoes the exact parameters the run used.
	Config model.AssetConfig `json:"config"`

	Fills []model.Fill `json:"fills,omitempty"`
}
