package backtest

import "math"

// riskState owns the drawdown and per-hour PnL bookkeeping for one run. The
// hourly buckets feed the Sharpe ratio; peak/drawdown run on the full mark
// including unrealized inventory.
type riskState struct {
	peakPnL     float64
	maxDrawdown float64

	hourlyPnL      []float64
	currentHourPnL float64
	currentHour    int64
}

func newRiskState() *riskState {
	return &riskState{currentHour: -1}
}

// credit adds realized PnL to the open hourly bucket.
func (r *riskState) credit(pnl float64) {
	r.currentHourPnL += pnl
}

// rollHour closes the open bucket when the tick crosses an hour boundary.
func (r *riskState) rollHour(tsMS int64) {
	hour := tsMS / 3_600_000
	switch {
	case r.currentHour == -1:
		r.currentHour = hour
	case hour != r.currentHour:
		r.hourlyPnL = append(r.hourlyPnL, r.currentHourPnL)
		r.currentHourPnL = 0
		r.currentHour = hour
	}
}

// markDrawdown updates peak and max drawdown from the running PnL.
func (r *riskState) markDrawdown(runningPnL float64) {
	if runningPnL > r.peakPnL {
		r.peakPnL = runningPnL
	}
	if dd := r.peakPnL - runningPnL; dd > r.maxDrawdown {
		r.maxDrawdown = dd
	}
}

// finish closes the trailing partial bucket.
func (r *riskState) finish() {
	if r.currentHourPnL != 0 {
		r.hourlyPnL = append(r.hourlyPnL, r.currentHourPnL)
	}
}

// sharpe annualizes the hourly bucket mean/deviation. Population standard
// deviation; zero when fewer than two buckets exist or deviation is zero,
// rather than propagating NaN into the result.
func (r *riskState) sharpe() float64 {
	n := len(r.hourlyPnL)
	if n < 2 {
		return 0
	}
	var sum float64
	for _, p := range r.hourlyPnL {
		sum += p
	}
	mean := sum / float64(n)

	var sq float64
	for _, p := range r.hourlyPnL {
		d := p - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(n))
	if std == 0 {
		return 0
	}
	const hoursPerYear = 8760
	return (mean / std) * math.Sqrt(hoursPerYear)
}
