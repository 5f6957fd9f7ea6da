package model

import "sort"

// Tick is one top-of-book observation. Timestamps are milliseconds since
// epoch. Upstream collection can deliver gaps, duplicates, and out-of-order
// rows; the loader sorts before replay.
type Tick struct {
	TimestampMS int64   `json:"timestamp_ms"`
	BestBid     float64 `json:"best_bid"`
	BestAsk     float64 `json:"best_ask"`
	Mid         float64 `json:"mid"`
	SpreadBps   float64 `json:"spread_bps"`
}

// Usable reports whether the tick carries prices the engine can replay.
// Unusable ticks are skipped and counted, never fatal to a run.
func (t Tick) Usable() bool {
	return t.Mid > 0 && t.BestBid > 0 && t.BestAsk > 0
}

// SortTicks orders ticks by timestamp in place. The sort is stable so
// duplicate timestamps keep their arrival order and replays stay
// deterministic.
func SortTicks(ticks []Tick) {
	sort.SliceStable(ticks, func(i, j int) bool {
		return ticks[i].TimestampMS < ticks[j].TimestampMS
	})
}
