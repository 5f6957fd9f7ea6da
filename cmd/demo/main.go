package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"

	"mm-backtest/internal/analysis"
	"mm-backtest/internal/backtest"
	"mm-backtest/internal/model"
)

// Demo:
//   - Generate a deterministic synthetic tick series (seeded random walk with
//     one injected volatility burst)
//   - Replay it through the engine with default parameters
//   - Print the first few fills and the run summary, showing the halt kicking
//     in around the burst
func main() {
	n := flag.Int("n", 5000, "Number of ticks to generate")
	seed := flag.Int64("seed", 42, "Random walk seed (same seed, same result)")
	spreadBps := flag.Float64("spread", 2.0, "Base spread in bps")
	flag.Parse()

	ticks := generateTicks(*n, *seed)
	cfg := model.AssetConfig{
		Asset:                "DEMO",
		TickSize:             0.01,
		MinOrderNotional:     25,
		MaxInventoryNotional: 500,
		BaseSpreadBps:        *spreadBps,
		VolatilityFraction:   0.5,
		Regime:               model.RegimeCalm,
	}

	stats := analysis.ComputeSeriesStats(cfg.Asset, ticks, cfg.MinOrderNotional)
	fmt.Printf("Generated %d ticks, mid %.2f..%.2f, mean spread %.2f bps, oracle capture %.4f\n\n",
		stats.Usable, stats.MinMid, stats.MaxMid, stats.MeanSpreadBps, stats.OracleCapture)

	engine := backtest.New(model.DefaultRunParams())
	res, err := engine.Run(ticks, cfg)
	if err != nil {
		panic(err)
	}

	for i, f := range res.Fills {
		if i >= 12 {
			break
		}
		fmt.Printf("%d  %s tier=%d  price=%9.2f  notional=%6.2f  rebate=%.6f\n",
			f.TimestampMS, f.Side, f.Tier, f.Price, f.Notional, f.Rebate)
	}

	fmt.Printf("\nFills=%d (bid=%d ask=%d)  halted=%.1f%% of ticks\n",
		res.TotalFills, res.BidFills, res.AskFills, res.HaltedPct)
	fmt.Printf("PnL=%.4f  rebates=%.4f  spread=%.4f  inventory=%.4f\n",
		res.TotalPnL, res.TotalRebates, res.SpreadPnL, res.InventoryPnL)
	fmt.Printf("Sharpe=%.3f  max_drawdown=%.4f  max_inventory=%.2f\n",
		res.SharpeRatio, res.MaxDrawdown, res.MaxInventory)
}

// generateTicks produces a mid random walk around 50000 with a short chaotic
// burst in the middle so the regime governor has something to halt on.
func generateTicks(n int, seed int64) []model.Tick {
	rng := rand.New(rand.NewSource(seed))
	ticks := make([]model.Tick, 0, n)
	mid := 50000.0
	burstStart := n / 2
	burstEnd := burstStart + 400
	for i := 0; i < n; i++ {
		vol := 0.0002
		if i >= burstStart && i < burstEnd {
			vol = 0.008
		}
		mid *= 1 + vol*(2*rng.Float64()-1)
		halfSpread := mid * 0.0001
		bid := mid - halfSpread
		ask := mid + halfSpread
		ticks = append(ticks, model.Tick{
			TimestampMS: int64(i) * 1000,
			BestBid:     bid,
			BestAsk:     ask,
			Mid:         mid,
			SpreadBps:   (ask - bid) / mid * 10000,
		})
	}
	// Round prices so the series looks like real feed data.
	for i := range ticks {
		ticks[i].BestBid = math.Round(ticks[i].BestBid*100) / 100
		ticks[i].BestAsk = math.Round(ticks[i].BestAsk*100) / 100
		ticks[i].Mid = (ticks[i].BestBid + ticks[i].BestAsk) / 2
	}
	return ticks
}
