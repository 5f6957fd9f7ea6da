package analysis

import (
	"sort"

	"mm-backtest/internal/model"
)

type RankedSeries struct {
	SeriesStats
}

// RankByOracleCapture computes stats per asset and sorts descending by
// OracleCapture, so the most quotable markets come first.
func RankByOracleCapture(byAsset map[string][]model.Tick, notional float64) []RankedSeries {
	out := make([]RankedSeries, 0, len(byAsset))
	for asset, ticks := range byAsset {
		out = append(out, RankedSeries{SeriesStats: ComputeSeriesStats(asset, ticks, notional)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OracleCapture != out[j].OracleCapture {
			return out[i].OracleCapture > out[j].OracleCapture
		}
		return out[i].Asset < out[j].Asset
	})
	return out
}
