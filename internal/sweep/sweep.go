// Package sweep repeats backtests across a cartesian parameter grid and
// ranks the outcomes. Runs share no mutable state, so they execute in
// parallel and are combined only after completion.
package sweep

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mm-backtest/internal/backtest"
	"mm-backtest/internal/model"
)

// Grid is the set of parameter values to cross. Empty dimensions fall back
// to the single value from the base config.
type Grid struct {
	SpreadBps        []float64 `yaml:"spread_bps" json:"spread_bps"`
	MaxInventory     []float64 `yaml:"max_inventory" json:"max_inventory"`
	MinOrderNotional []float64 `yaml:"min_order_notional" json:"min_order_notional"`
}

// DefaultGrid mirrors the parameter ranges the desk tunes over.
func DefaultGrid() Grid {
	return Grid{
		SpreadBps:        []float64{0.5, 1.0, 1.5, 2.0, 3.0, 5.0},
		MaxInventory:     []float64{100, 200, 500},
		MinOrderNotional: []float64{12, 24},
	}
}

// Expand produces one AssetConfig per grid point, base filling every field
// the grid does not vary. Order is deterministic.
func (g Grid) Expand(base model.AssetConfig) []model.AssetConfig {
	spreads := g.SpreadBps
	if len(spreads) == 0 {
		spreads = []float64{base.BaseSpreadBps}
	}
	invs := g.MaxInventory
	if len(invs) == 0 {
		invs = []float64{base.MaxInventoryNotional}
	}
	sizes := g.MinOrderNotional
	if len(sizes) == 0 {
		sizes = []float64{base.MinOrderNotional}
	}

	out := make([]model.AssetConfig, 0, len(spreads)*len(invs)*len(sizes))
	for _, sp := range spreads {
		for _, inv := range invs {
			for _, sz := range sizes {
				cfg := base
				cfg.BaseSpreadBps = sp
				cfg.MaxInventoryNotional = inv
				cfg.MinOrderNotional = sz
				out = append(out, cfg)
			}
		}
	}
	return out
}

// Driver runs one engine configuration across many parameter combinations.
type Driver struct {
	Engine  *backtest.Engine
	Workers int
	Log     *zap.Logger
}

func NewDriver(engine *backtest.Engine, workers int, log *zap.Logger) *Driver {
	if workers <= 0 {
		workers = 4
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Driver{Engine: engine, Workers: workers, Log: log}
}

// Run executes every grid point against the same tick series and returns the
// results sorted descending by total PnL. A failed combination (invalid
// config) is logged and skipped; it never aborts the sweep.
//
// Each run gets its own copy of the tick slice: the engine sorts in place,
// and concurrent runs must not share backing arrays.
func (d *Driver) Run(ctx context.Context, ticks []model.Tick, base model.AssetConfig, grid Grid) ([]*backtest.Result, error) {
	combos := grid.Expand(base)
	results := make([]*backtest.Result, len(combos))

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.Workers)

	for i, cfg := range combos {
		i, cfg := i, cfg
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			own := make([]model.Tick, len(ticks))
			copy(own, ticks)

			res, err := d.Engine.Run(own, cfg)
			if err != nil {
				d.Log.Warn("sweep combination skipped",
					zap.String("asset", cfg.Asset),
					zap.Float64("spread_bps", cfg.BaseSpreadBps),
					zap.Error(err),
				)
				return nil
			}
			// Sweep tables only need summaries; drop per-fill logs to keep
			// a 36-way sweep from holding every fill in memory.
			res.Fills = nil

			mu.Lock()
			results[i] = res
			mu.Unlock()

			d.Log.Debug("sweep combination finished",
				zap.Float64("spread_bps", cfg.BaseSpreadBps),
				zap.Float64("max_inventory", cfg.MaxInventoryNotional),
				zap.Float64("total_pnl", res.TotalPnL),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*backtest.Result, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	Rank(out)
	return out, nil
}

// Rank sorts results descending by total PnL, ties broken by Sharpe then by
// fill count so ordering is deterministic.
func Rank(results []*backtest.Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].TotalPnL != results[j].TotalPnL {
			return results[i].TotalPnL > results[j].TotalPnL
		}
		if results[i].SharpeRatio != results[j].SharpeRatio {
			return results[i].SharpeRatio > results[j].SharpeRatio
		}
		return results[i].TotalFills > results[j].TotalFills
	})
}
