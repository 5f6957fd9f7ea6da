// Package regime classifies market volatility into calm / uncertain / halt
// and derives the spread multiplier the grid applies. Halt is consumed by the
// replay loop to cancel all resting orders and stop quoting until the market
// settles; it is not an error condition.
package regime

import "mm-backtest/internal/model"

// Governor thresholds operate on the average absolute return over the most
// recent sample span. Recomputation happens on a fixed tick cadence (driven
// by the caller), never per tick, so single prints cannot whip the regime.
type Governor struct {
	calmThreshold    float64
	chaoticThreshold float64
	sampleSpan       int

	window []float64 // bounded ring of observed mids, oldest first
	maxLen int

	multiplier float64
	regime     string
}

// Minimum samples before any regime beyond calm is considered.
const minSamples = 10

const (
	haltMultiplier      = 4.0
	uncertainMultiplier = 1.5
)

func NewGovernor(p model.RunParams) *Governor {
	return &Governor{
		calmThreshold:    p.CalmThreshold,
		chaoticThreshold: p.ChaoticThreshold,
		sampleSpan:       p.RegimeSampleSpan,
		maxLen:           p.MidWindowSize,
		window:           make([]float64, 0, p.MidWindowSize),
		multiplier:       1.0,
		regime:           model.RegimeCalm,
	}
}

// Observe appends a mid price to the rolling window. Called once per usable
// tick.
func (g *Governor) Observe(mid float64) {
	if len(g.window) == g.maxLen {
		copy(g.window, g.window[1:])
		g.window = g.window[:g.maxLen-1]
	}
	g.window = append(g.window, mid)
}

// Recompute reclassifies the regime from the most recent samples and returns
// whether the regime changed, so the caller can log the transition explicitly
// rather than bury it as a side effect.
func (g *Governor) Recompute() bool {
	prev := g.regime

	if len(g.window) < minSamples {
		g.multiplier = 1.0
		g.regime = model.RegimeCalm
		return g.regime != prev
	}

	samples := g.window
	if len(samples) > g.sampleSpan {
		samples = samples[len(samples)-g.sampleSpan:]
	}

	var sum float64
	var n int
	for i := 1; i < len(samples); i++ {
		if samples[i-1] <= 0 {
			// Degenerate price: no signal, not NaN.
			continue
		}
		r := (samples[i] - samples[i-1]) / samples[i-1]
		if r < 0 {
			r = -r
		}
		sum += r
		n++
	}
	if n == 0 {
		return false
	}
	avgAbsReturn := sum / float64(n)

	switch {
	case avgAbsReturn >= g.chaoticThreshold:
		// Pinned: further volatility cannot widen past the halt multiplier.
		g.regime = model.RegimeHalt
		g.multiplier = haltMultiplier
	case avgAbsReturn >= g.calmThreshold:
		t := (avgAbsReturn - g.calmThreshold) / (g.chaoticThreshold - g.calmThreshold)
		g.multiplier = 1.0 + t*2.0
		if g.multiplier > uncertainMultiplier {
			g.regime = model.RegimeUncertain
		} else {
			g.regime = model.RegimeCalm
		}
	default:
		g.multiplier = 1.0
		g.regime = model.RegimeCalm
	}

	return g.regime != prev
}

// Regime returns the current classification label.
func (g *Governor) Regime() string { return g.regime }

// Halted reports whether quoting should be suspended.
func (g *Governor) Halted() bool { return g.regime == model.RegimeHalt }

// Multiplier returns the current spread multiplier (1.0 in calm).
func (g *Governor) Multiplier() float64 { return g.multiplier }

// Samples returns how many mids the window currently holds.
func (g *Governor) Samples() int { return len(g.window) }
