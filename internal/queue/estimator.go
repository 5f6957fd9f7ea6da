// Package queue models whether a resting order would realistically have been
// executed, without simulating full order-book depth. Real queue position is
// unobservable from top-of-book ticks alone; the estimator trades precision
// for a monotone, auditable proxy: more adverse volume at our price means a
// higher fill probability, saturating at 1.
package queue

import "mm-backtest/internal/model"

type entry struct {
	price      float64
	side       model.Side
	notional   float64
	tradedThru float64
	placedAtMS int64
}

// Estimator tracks one shadow order per (side, tier) slot. Slots are a fixed
// array rather than a string-keyed map so the per-tick hot loop allocates
// nothing and cannot suffer key typos.
type Estimator struct {
	depthFactor float64
	entries     [model.NumSides][model.NumTiers]entry
	active      [model.NumSides][model.NumTiers]bool
}

// NewEstimator creates an estimator with the given queue depth factor; a
// factor of 2 assumes our order sits in the middle of the queue.
func NewEstimator(depthFactor float64) *Estimator {
	if depthFactor <= 0 {
		depthFactor = 2.0
	}
	return &Estimator{depthFactor: depthFactor}
}

// Register places a shadow order in the (side, tier) slot, overwriting any
// previous occupant and resetting its traded-through volume.
func (e *Estimator) Register(side model.Side, tier int, price, notional float64, tsMS int64) {
	e.entries[side][tier-1] = entry{
		price:      price,
		side:       side,
		notional:   notional,
		placedAtMS: tsMS,
	}
	e.active[side][tier-1] = true
}

// Resting reports whether a shadow order occupies the slot.
func (e *Estimator) Resting(side model.Side, tier int) bool {
	return e.active[side][tier-1]
}

// OnTrade feeds one synthetic taker trade to a slot. Volume accumulates only
// when the trade is at-or-through our resting price: a taker sell at/below a
// resting bid, or a taker buy at/above a resting ask. No-op for empty slots.
func (e *Estimator) OnTrade(side model.Side, tier int, tradePrice float64, takerBuy bool, volume float64) {
	if !e.active[side][tier-1] {
		return
	}
	ent := &e.entries[side][tier-1]

	var through bool
	if ent.side == model.SideBid {
		through = !takerBuy && tradePrice <= ent.price
	} else {
		through = takerBuy && tradePrice >= ent.price
	}
	if through {
		ent.tradedThru += volume
	}
}

// OnTradeAll feeds one taker trade to every resting slot on both sides.
func (e *Estimator) OnTradeAll(tradePrice float64, takerBuy bool, volume float64) {
	for side := model.Side(0); side < model.NumSides; side++ {
		for tier := 1; tier <= model.NumTiers; tier++ {
			e.OnTrade(side, tier, tradePrice, takerBuy, volume)
		}
	}
}

// FillProbability is min(1, tradedThrough / (depthFactor * notional)).
// Zero for an empty slot, and zero-size orders are treated as no signal
// rather than dividing by zero.
func (e *Estimator) FillProbability(side model.Side, tier int) float64 {
	if !e.active[side][tier-1] {
		return 0
	}
	ent := e.entries[side][tier-1]
	denom := e.depthFactor * ent.notional
	if denom <= 0 {
		return 0
	}
	p := ent.tradedThru / denom
	if p > 1 {
		return 1
	}
	return p
}

// LikelyFilled is the execution gate used by the replay loop.
func (e *Estimator) LikelyFilled(side model.Side, tier int, threshold float64) bool {
	return e.FillProbability(side, tier) >= threshold
}

// Remove deregisters a slot after a fill or a cancel.
func (e *Estimator) Remove(side model.Side, tier int) {
	e.active[side][tier-1] = false
	e.entries[side][tier-1] = entry{}
}

// Clear cancels every resting shadow order (regime halt).
func (e *Estimator) Clear() {
	for side := range e.active {
		for tier := range e.active[side] {
			e.active[side][tier] = false
			e.entries[side][tier] = entry{}
		}
	}
}
