package strategy

import (
	"math"

	"mm-backtest/internal/model"
)

// Quote is one resting order in the grid.
type Quote struct {
	Side     model.Side
	Tier     int // 1..3
	Price    float64
	Notional float64
}

// QuoteGrid is the set of levels active at one instant.
type QuoteGrid struct {
	Bids []Quote
	Asks []Quote
}

func (g QuoteGrid) IsEmpty() bool {
	return len(g.Bids) == 0 && len(g.Asks) == 0
}

// Tier half-spread and size ladders relative to L1.
var (
	tierSpreadScale = [model.NumTiers]float64{1.0, 2.5, 5.0}
	tierSizeScale   = [model.NumTiers]float64{1.0, 2.0, 3.0}
)

// ComputeQuoteGrid builds the 3-tier post-only quote grid.
//
// Inventory skew shifts the ENTIRE grid against the already-larger side:
// long inventory lowers both bids (less eager to buy) and asks (faster to
// sell); short inventory raises both. The grid unwinds positions while still
// resting as a maker.
//
// Returns an empty grid when the regime is halted or the mid is degenerate;
// that is a fail-safe, not an error. Pure function, deterministic.
func ComputeQuoteGrid(
	midPrice float64,
	cfg model.AssetConfig,
	invNotional float64, // signed: +long, -short
	regimeMultiplier float64,
	suppressBids, suppressAsks bool,
	sizeFloor float64,
) QuoteGrid {
	var grid QuoteGrid

	if cfg.Regime == model.RegimeHalt || midPrice <= 0 {
		return grid
	}

	baseHalfSpread := midPrice * (cfg.BaseSpreadBps / 10_000.0)
	effectiveSpread := baseHalfSpread * regimeMultiplier

	invFraction := clamp(invNotional/cfg.MaxInventoryNotional, -1.0, 1.0)
	skew := invFraction * effectiveSpread * 1.5

	baseSize := math.Max(cfg.MinOrderNotional, sizeFloor)

	for i := 0; i < model.NumTiers; i++ {
		sp := effectiveSpread * tierSpreadScale[i]
		sz := baseSize * tierSizeScale[i]
		tier := i + 1

		if !suppressBids {
			bidPrice := SnapToTick(midPrice-sp-skew, cfg.TickSize)
			if bidPrice > 0 {
				grid.Bids = append(grid.Bids, Quote{Side: model.SideBid, Tier: tier, Price: bidPrice, Notional: sz})
			}
		}

		if !suppressAsks {
			askPrice := SnapToTick(midPrice+sp-skew, cfg.TickSize)
			// Sanity floor: an ask at or below 90% of mid means the inputs
			// are degenerate; drop the level rather than quote through mid.
			if askPrice > midPrice*0.9 {
				grid.Asks = append(grid.Asks, Quote{Side: model.SideAsk, Tier: tier, Price: askPrice, Notional: sz})
			}
		}
	}

	return grid
}

// SnapToTick snaps a price to the nearest valid tick. This must match the
// production engine's rounding bit-for-bit so backtests stay predictive.
func SnapToTick(price, tickSize float64) float64 {
	if tickSize <= 0 {
		return price
	}
	return math.Round(price/tickSize) * tickSize
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
