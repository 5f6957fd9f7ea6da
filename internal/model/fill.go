package model

// Side of a resting order. The integer values index fixed-size per-side
// arrays in the queue estimator, so keep them dense.
type Side int

const (
	SideBid Side = iota
	SideAsk

	NumSides = 2
)

// Tiers per side in the quote grid: 1 = tightest, 3 = deepest.
const NumTiers = 3

// String values are stable; they are written to CSV and JSON output.
func (s Side) String() string {
	if s == SideBid {
		return "bid"
	}
	return "ask"
}

func (s Side) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Fill records one simulated execution. Fills are append-only; never mutated
// after creation.
type Fill struct {
	Asset       string  `json:"asset"`
	Side        Side    `json:"side"`
	Tier        int     `json:"tier"`
	Price       float64 `json:"price"`
	Notional    float64 `json:"notional"`
	TimestampMS int64   `json:"timestamp_ms"`
	Rebate      float64 `json:"rebate"`
	MidAtFill   float64 `json:"mid_at_fill"`
}
