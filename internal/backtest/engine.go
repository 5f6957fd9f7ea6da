package backtest

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"mm-backtest/internal/model"
	"mm-backtest/internal/queue"
	"mm-backtest/internal/regime"
	"mm-backtest/internal/strategy"
)

// SyntheticTrade is one taker event fed to the queue estimator.
type SyntheticTrade struct {
	Price    float64
	TakerBuy bool
	Volume   float64
}

// TradeSynth turns a tick into the taker flow assumed to have happened at it.
// It is injectable so the fixed-notional approximation below can be swapped
// for a more faithful volume model without touching the replay loop.
type TradeSynth func(t model.Tick, cfg model.AssetConfig, p model.RunParams) []SyntheticTrade

// FixedNotionalSynth models each tick as one conservative taker sell at the
// best bid and one taker buy at the best ask, each a fixed fraction of the
// minimum order notional. Whether this matches live volume is unverified; it
// errs on the side of under-filling.
func FixedNotionalSynth(t model.Tick, cfg model.AssetConfig, p model.RunParams) []SyntheticTrade {
	vol := cfg.MinOrderNotional * p.TradeVolumeFraction
	trades := make([]SyntheticTrade, 0, 2)
	if t.BestBid > 0 {
		trades = append(trades, SyntheticTrade{Price: t.BestBid, TakerBuy: false, Volume: vol})
	}
	if t.BestAsk > 0 {
		trades = append(trades, SyntheticTrade{Price: t.BestAsk, TakerBuy: true, Volume: vol})
	}
	return trades
}

// Engine replays a tick series through the quote grid, queue estimator, and
// regime governor. The Engine itself is read-only during Run; all mutable
// state is per-run, so independent runs may execute in parallel.
type Engine struct {
	params model.RunParams
	synth  TradeSynth
	log    *zap.Logger
}

func New(params model.RunParams) *Engine {
	return &Engine{
		params: params,
		synth:  FixedNotionalSynth,
		log:    zap.NewNop(),
	}
}

// WithLogger attaches a logger for regime transition and progress events.
func (e *Engine) WithLogger(log *zap.Logger) *Engine {
	if log != nil {
		e.log = log
	}
	return e
}

// WithTradeSynth overrides the synthetic taker flow model.
func (e *Engine) WithTradeSynth(s TradeSynth) *Engine {
	if s != nil {
		e.synth = s
	}
	return e
}

// Run executes a single backtest. The tick slice is sorted in place by
// timestamp first, since upstream collection can produce out-of-order rows.
// Zero usable ticks yields a zero-activity result, not an error, so batch
// sweeps never abort wholesale on one asset's missing data. Replaying the
// same ticks and config always yields bit-identical results; there is no
// randomness in this engine.
func (e *Engine) Run(ticks []model.Tick, cfg model.AssetConfig) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("asset config invalid: %w", err)
	}
	if err := e.params.Validate(); err != nil {
		return nil, fmt.Errorf("run params invalid: %w", err)
	}

	model.SortTicks(ticks)

	p := e.params
	estimator := queue.NewEstimator(p.QueueDepthFactor)
	governor := regime.NewGovernor(p)
	risk := newRiskState()

	var (
		inventoryUnits    float64 // net position in asset units
		inventoryNotional float64 // mark-to-market
		fills             []model.Fill
		totalVolume       float64
		totalRebates      float64
		spreadPnL         float64
		maxInventory      float64
		haltedTicks       int
		skippedTicks      int
		lastMid           float64
		quoting           = true

		// Unmatched fill prices pair opposite-side fills into spread
		// capture events, FIFO.
		unmatchedBids []float64
		unmatchedAsks []float64
	)

	for idx, tick := range ticks {
		if !tick.Usable() {
			skippedTicks++
			continue
		}
		mid := tick.Mid
		lastMid = mid

		governor.Observe(mid)
		if idx%p.RegimeCadenceTicks == 0 {
			if governor.Recompute() {
				e.log.Info("regime transition",
					zap.String("asset", cfg.Asset),
					zap.String("regime", governor.Regime()),
					zap.Float64("multiplier", governor.Multiplier()),
					zap.Int("tick", idx),
				)
			}
		}

		if governor.Halted() {
			haltedTicks++
			if quoting {
				// Explicit Quoting -> Halted transition: cancel every
				// resting shadow order.
				estimator.Clear()
				quoting = false
				e.log.Info("quoting halted",
					zap.String("asset", cfg.Asset), zap.Int("tick", idx))
			}
			continue
		}
		if !quoting {
			quoting = true
			e.log.Info("quoting resumed",
				zap.String("asset", cfg.Asset), zap.Int("tick", idx))
		}

		regimeMult := governor.Multiplier()

		inventoryNotional = inventoryUnits * mid
		if a := math.Abs(inventoryNotional); a > maxInventory {
			maxInventory = a
		}

		atMaxLong := inventoryNotional >= cfg.MaxInventoryNotional
		atMaxShort := inventoryNotional <= -cfg.MaxInventoryNotional

		grid := strategy.ComputeQuoteGrid(
			mid, cfg, inventoryNotional, regimeMult,
			atMaxLong,  // no bids while max long
			atMaxShort, // no asks while max short
			p.GridSizeFloor,
		)
		if grid.IsEmpty() {
			continue
		}

		// Register levels not already resting. Keyed by (side, tier), so
		// re-quoting an unchanged level is idempotent.
		for _, q := range grid.Bids {
			if !estimator.Resting(q.Side, q.Tier) {
				estimator.Register(q.Side, q.Tier, q.Price, q.Notional, tick.TimestampMS)
			}
		}
		for _, q := range grid.Asks {
			if !estimator.Resting(q.Side, q.Tier) {
				estimator.Register(q.Side, q.Tier, q.Price, q.Notional, tick.TimestampMS)
			}
		}

		for _, tr := range e.synth(tick, cfg, p) {
			estimator.OnTradeAll(tr.Price, tr.TakerBuy, tr.Volume)
		}

		// Bid fills: inventory grows; reject past cap * tolerance and
		// cancel the level instead.
		for _, q := range grid.Bids {
			if !estimator.LikelyFilled(q.Side, q.Tier, p.FillThreshold) {
				continue
			}
			if inventoryNotional+q.Notional > cfg.MaxInventoryNotional*p.InventoryTolerance {
				estimator.Remove(q.Side, q.Tier)
				continue
			}

			rebate := q.Notional * p.MakerRebateRate
			fills = append(fills, model.Fill{
				Asset:       cfg.Asset,
				Side:        q.Side,
				Tier:        q.Tier,
				Price:       q.Price,
				Notional:    q.Notional,
				TimestampMS: tick.TimestampMS,
				Rebate:      rebate,
				MidAtFill:   mid,
			})
			totalVolume += q.Notional
			totalRebates += rebate

			inventoryUnits += q.Notional / mid
			inventoryNotional = inventoryUnits * mid
			unmatchedBids = append(unmatchedBids, q.Price)

			if len(unmatchedAsks) > 0 {
				askPrice := unmatchedAsks[0]
				unmatchedAsks = unmatchedAsks[1:]
				spreadPnL += (askPrice - q.Price) / mid * q.Notional
			}

			risk.credit(rebate)
			estimator.Remove(q.Side, q.Tier)
		}

		// Ask fills: inventory shrinks; mirror of the bid path.
		for _, q := range grid.Asks {
			if !estimator.LikelyFilled(q.Side, q.Tier, p.FillThreshold) {
				continue
			}
			if inventoryNotional-q.Notional < -cfg.MaxInventoryNotional*p.InventoryTolerance {
				estimator.Remove(q.Side, q.Tier)
				continue
			}

			rebate := q.Notional * p.MakerRebateRate
			fills = append(fills, model.Fill{
				Asset:       cfg.Asset,
				Side:        q.Side,
				Tier:        q.Tier,
				Price:       q.Price,
				Notional:    q.Notional,
				TimestampMS: tick.TimestampMS,
				Rebate:      rebate,
				MidAtFill:   mid,
			})
			totalVolume += q.Notional
			totalRebates += rebate

			inventoryUnits -= q.Notional / mid
			inventoryNotional = inventoryUnits * mid
			unmatchedAsks = append(unmatchedAsks, q.Price)

			if len(unmatchedBids) > 0 {
				bidPrice := unmatchedBids[0]
				unmatchedBids = unmatchedBids[1:]
				spreadPnL += (q.Price - bidPrice) / mid * q.Notional
			}

			risk.credit(rebate)
			estimator.Remove(q.Side, q.Tier)
		}

		risk.rollHour(tick.TimestampMS)
		risk.markDrawdown(totalRebates + spreadPnL + inventoryUnits*mid)
	}

	risk.finish()

	// Residual inventory marks to the last observed mid (unrealized).
	inventoryPnL := inventoryUnits * lastMid

	durationHours := 1.0
	if len(ticks) >= 2 {
		span := float64(ticks[len(ticks)-1].TimestampMS-ticks[0].TimestampMS) / 3_600_000.0
		if span > durationHours {
			durationHours = span
		}
	}

	bidFills := 0
	for _, f := range fills {
		if f.Side == model.SideBid {
			bidFills++
		}
	}

	totalTicks := len(ticks)
	haltedPct := 0.0
	if totalTicks > 0 {
		haltedPct = float64(haltedTicks) / float64(totalTicks) * 100
	}

	return &Result{
		Asset:          cfg.Asset,
		TicksProcessed: totalTicks,
		TicksSkipped:   skippedTicks,
		HaltedTicks:    haltedTicks,
		TotalFills:     len(fills),
		BidFills:       bidFills,
		AskFills:       len(fills) - bidFills,
		TotalVolume:    totalVolume,
		TotalRebates:   totalRebates,
		SpreadPnL:      spreadPnL,
		InventoryPnL:   inventoryPnL,
		TotalPnL:       totalRebates + spreadPnL + inventoryPnL,
		FlattenCost:    math.Abs(inventoryUnits*lastMid) * p.TakerFeeRate,
		MaxDrawdown:    risk.maxDrawdown,
		MaxInventory:   maxInventory,
		SharpeRatio:    risk.sharpe(),
		FillsPerHour:   float64(len(fills)) / durationHours,
		HaltedPct:      haltedPct,
		DurationHours:  durationHours,
		Config:         cfg,
		Fills:          fills,
	}, nil
}
