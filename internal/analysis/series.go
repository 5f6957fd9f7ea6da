package analysis

import (
	"math"
	"sort"

	"mm-backtest/internal/model"
)

// SeriesStats is a per-asset summary of a tick series, used to size grids and
// sanity-check a dataset before replaying it. It includes an "oracle" spread
// capture for a canonical passive maker that completes one round trip of the
// configured notional at every tick, which is an upper bound no real queue
// position can beat.
type SeriesStats struct {
	Asset string

	StartMS int64
	EndMS   int64

	Count  int
	Usable int

	MinMid  float64
	MaxMid  float64
	MeanMid float64
	P05Mid  float64
	P95Mid  float64

	MeanSpreadBps float64
	P95SpreadBps  float64

	// RealizedVol is the mean absolute tick-to-tick mid return, the same
	// signal the regime governor thresholds on.
	RealizedVol float64

	OracleCapture float64
}

// ComputeSeriesStats summarizes ticks for one asset. Unusable ticks count
// toward Count but contribute nothing else. notional sets the round-trip size
// for the oracle capture.
func ComputeSeriesStats(asset string, ticks []model.Tick, notional float64) SeriesStats {
	s := SeriesStats{Asset: asset, Count: len(ticks)}
	if len(ticks) == 0 {
		return s
	}
	s.StartMS = ticks[0].TimestampMS
	s.EndMS = ticks[len(ticks)-1].TimestampMS

	mids := make([]float64, 0, len(ticks))
	spreads := make([]float64, 0, len(ticks))
	sumMid := 0.0
	sumSpread := 0.0
	minMid := math.Inf(1)
	maxMid := math.Inf(-1)
	prevMid := 0.0
	retSum := 0.0
	retN := 0
	for _, t := range ticks {
		if !t.Usable() {
			continue
		}
		mids = append(mids, t.Mid)
		spreads = append(spreads, t.SpreadBps)
		sumMid += t.Mid
		sumSpread += t.SpreadBps
		if t.Mid < minMid {
			minMid = t.Mid
		}
		if t.Mid > maxMid {
			maxMid = t.Mid
		}
		if prevMid > 0 {
			retSum += math.Abs(t.Mid-prevMid) / prevMid
			retN++
		}
		prevMid = t.Mid

		s.OracleCapture += t.SpreadBps / 10000.0 * notional
	}
	s.Usable = len(mids)
	if s.Usable == 0 {
		return s
	}
	sort.Float64s(mids)
	sort.Float64s(spreads)
	s.MinMid = minMid
	s.MaxMid = maxMid
	s.MeanMid = sumMid / float64(len(mids))
	s.P05Mid = percentileSorted(mids, 0.05)
	s.P95Mid = percentileSorted(mids, 0.95)
	s.MeanSpreadBps = sumSpread / float64(len(spreads))
	s.P95SpreadBps = percentileSorted(spreads, 0.95)
	if retN > 0 {
		s.RealizedVol = retSum / float64(retN)
	}
	return s
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	// Linear interpolation between order stats.
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
