package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mm-backtest/internal/model"
)

func tick(ts int64, mid, spreadBps float64) model.Tick {
	half := mid * spreadBps / 20000
	return model.Tick{
		TimestampMS: ts,
		BestBid:     mid - half,
		BestAsk:     mid + half,
		Mid:         mid,
		SpreadBps:   spreadBps,
	}
}

func TestComputeSeriesStats_Basics(t *testing.T) {
	ticks := []model.Tick{
		tick(0, 100, 2),
		tick(1000, 110, 2),
		tick(2000, 90, 4),
	}
	s := ComputeSeriesStats("BTC", ticks, 25)

	assert.Equal(t, "BTC", s.Asset)
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 3, s.Usable)
	assert.Equal(t, int64(0), s.StartMS)
	assert.Equal(t, int64(2000), s.EndMS)
	assert.InDelta(t, 90.0, s.MinMid, 1e-9)
	assert.InDelta(t, 110.0, s.MaxMid, 1e-9)
	assert.InDelta(t, 100.0, s.MeanMid, 1e-9)
	assert.InDelta(t, (2.0+2.0+4.0)/3, s.MeanSpreadBps, 1e-9)

	// |0.1| then |-20/110|, averaged.
	wantVol := (0.1 + 20.0/110.0) / 2
	assert.InDelta(t, wantVol, s.RealizedVol, 1e-9)

	// Sum of spread_bps/1e4 * notional over usable ticks.
	wantCapture := (2.0 + 2.0 + 4.0) / 10000 * 25
	assert.InDelta(t, wantCapture, s.OracleCapture, 1e-9)
}

func TestComputeSeriesStats_SkipsUnusable(t *testing.T) {
	ticks := []model.Tick{
		tick(0, 100, 2),
		{TimestampMS: 1000}, // all zero: unusable
		tick(2000, 100, 2),
	}
	s := ComputeSeriesStats("BTC", ticks, 25)
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 2, s.Usable)
	assert.Zero(t, s.RealizedVol)
}

func TestComputeSeriesStats_Empty(t *testing.T) {
	s := ComputeSeriesStats("BTC", nil, 25)
	assert.Zero(t, s.Count)
	assert.Zero(t, s.OracleCapture)
}

func TestPercentileSorted(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 1.0, percentileSorted(vals, 0), 1e-9)
	assert.InDelta(t, 5.0, percentileSorted(vals, 1), 1e-9)
	assert.InDelta(t, 3.0, percentileSorted(vals, 0.5), 1e-9)
	// Interpolated between order statistics.
	assert.InDelta(t, 1.8, percentileSorted(vals, 0.2), 1e-9)
	assert.Zero(t, percentileSorted(nil, 0.5))
}

func TestRankByOracleCapture(t *testing.T) {
	byAsset := map[string][]model.Tick{
		"quiet": {tick(0, 100, 1), tick(1000, 100, 1)},
		"wide":  {tick(0, 100, 10), tick(1000, 100, 10)},
	}
	ranked := RankByOracleCapture(byAsset, 25)
	require.Len(t, ranked, 2)
	assert.Equal(t, "wide", ranked[0].Asset)
	assert.Equal(t, "quiet", ranked[1].Asset)
	assert.Greater(t, ranked[0].OracleCapture, ranked[1].OracleCapture)
}

func TestRankByOracleCapture_TiesBreakByName(t *testing.T) {
	byAsset := map[string][]model.Tick{
		"b": {tick(0, 100, 2)},
		"a": {tick(0, 100, 2)},
	}
	ranked := RankByOracleCapture(byAsset, 25)
	require.Len(t, ranked, 2)
	assert.Equal(t, "a", ranked[0].Asset)
}

func TestComputeSeriesStats_VolMatchesGovernorSignal(t *testing.T) {
	// A constant 1% alternating walk should report ~1% realized vol.
	ticks := make([]model.Tick, 100)
	mid := 100.0
	for i := range ticks {
		if i%2 == 0 {
			mid *= 1.01
		} else {
			mid /= 1.01
		}
		ticks[i] = tick(int64(i)*1000, mid, 2)
	}
	s := ComputeSeriesStats("X", ticks, 25)
	assert.InDelta(t, 0.01, s.RealizedVol, 0.001)
	assert.Less(t, math.Abs(s.P95Mid-s.P05Mid), 3.0)
}
