package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mm-backtest/internal/model"
)

func TestFillProbability_EmptySlotIsZero(t *testing.T) {
	e := NewEstimator(2.0)
	assert.Zero(t, e.FillProbability(model.SideBid, 1))
	assert.False(t, e.Resting(model.SideBid, 1))
	assert.False(t, e.LikelyFilled(model.SideBid, 1, 0.1))
}

func TestFillProbability_AccumulatesMonotonically(t *testing.T) {
	e := NewEstimator(2.0)
	e.Register(model.SideBid, 1, 100.0, 10.0, 0)

	// depthFactor 2 * notional 10 => 20 of volume saturates the slot.
	prev := 0.0
	for i := 0; i < 10; i++ {
		e.OnTrade(model.SideBid, 1, 99.5, false, 3.0)
		p := e.FillProbability(model.SideBid, 1)
		assert.GreaterOrEqual(t, p, prev)
		assert.LessOrEqual(t, p, 1.0)
		prev = p
	}
	assert.InDelta(t, 1.0, prev, 1e-9)
}

func TestFillProbability_ExactThreshold(t *testing.T) {
	e := NewEstimator(2.0)
	e.Register(model.SideBid, 1, 100.0, 10.0, 0)

	// 14 / (2 * 10) = 0.70 exactly; the gate is inclusive.
	e.OnTrade(model.SideBid, 1, 100.0, false, 14.0)
	assert.InDelta(t, 0.70, e.FillProbability(model.SideBid, 1), 1e-9)
	assert.True(t, e.LikelyFilled(model.SideBid, 1, 0.70))

	e2 := NewEstimator(2.0)
	e2.Register(model.SideBid, 1, 100.0, 10.0, 0)
	e2.OnTrade(model.SideBid, 1, 100.0, false, 13.9)
	assert.False(t, e2.LikelyFilled(model.SideBid, 1, 0.70))
}

func TestOnTrade_DirectionAndPriceGating(t *testing.T) {
	e := NewEstimator(2.0)
	e.Register(model.SideBid, 1, 100.0, 10.0, 0)
	e.Register(model.SideAsk, 1, 101.0, 10.0, 0)

	// A taker buy never fills a bid; a taker sell never fills an ask.
	e.OnTrade(model.SideBid, 1, 99.0, true, 50.0)
	e.OnTrade(model.SideAsk, 1, 102.0, false, 50.0)
	assert.Zero(t, e.FillProbability(model.SideBid, 1))
	assert.Zero(t, e.FillProbability(model.SideAsk, 1))

	// Trades that do not reach the resting price count for nothing.
	e.OnTrade(model.SideBid, 1, 100.5, false, 50.0)
	e.OnTrade(model.SideAsk, 1, 100.5, true, 50.0)
	assert.Zero(t, e.FillProbability(model.SideBid, 1))
	assert.Zero(t, e.FillProbability(model.SideAsk, 1))

	// At-the-price trades count.
	e.OnTrade(model.SideBid, 1, 100.0, false, 10.0)
	e.OnTrade(model.SideAsk, 1, 101.0, true, 10.0)
	assert.InDelta(t, 0.5, e.FillProbability(model.SideBid, 1), 1e-9)
	assert.InDelta(t, 0.5, e.FillProbability(model.SideAsk, 1), 1e-9)
}

func TestOnTradeAll_FansOutToAllSlots(t *testing.T) {
	e := NewEstimator(2.0)
	for tier := 1; tier <= model.NumTiers; tier++ {
		e.Register(model.SideBid, tier, 100.0-float64(tier), 10.0, 0)
		e.Register(model.SideAsk, tier, 100.0+float64(tier), 10.0, 0)
	}

	// A deep taker sell sweeps through every bid tier but touches no ask.
	e.OnTradeAll(90.0, false, 8.0)
	for tier := 1; tier <= model.NumTiers; tier++ {
		assert.InDelta(t, 0.4, e.FillProbability(model.SideBid, tier), 1e-9)
		assert.Zero(t, e.FillProbability(model.SideAsk, tier))
	}
}

func TestRegister_OverwriteResetsVolume(t *testing.T) {
	e := NewEstimator(2.0)
	e.Register(model.SideBid, 2, 100.0, 10.0, 0)
	e.OnTrade(model.SideBid, 2, 99.0, false, 20.0)
	require.InDelta(t, 1.0, e.FillProbability(model.SideBid, 2), 1e-9)

	e.Register(model.SideBid, 2, 99.5, 10.0, 1000)
	assert.Zero(t, e.FillProbability(model.SideBid, 2))
	assert.True(t, e.Resting(model.SideBid, 2))
}

func TestRemoveAndClear(t *testing.T) {
	e := NewEstimator(2.0)
	e.Register(model.SideBid, 1, 100.0, 10.0, 0)
	e.Register(model.SideAsk, 3, 105.0, 30.0, 0)

	e.Remove(model.SideBid, 1)
	assert.False(t, e.Resting(model.SideBid, 1))
	assert.True(t, e.Resting(model.SideAsk, 3))

	e.Clear()
	for side := model.Side(0); side < model.NumSides; side++ {
		for tier := 1; tier <= model.NumTiers; tier++ {
			assert.False(t, e.Resting(side, tier))
		}
	}
}

func TestNewEstimator_DefaultsDepthFactor(t *testing.T) {
	e := NewEstimator(0)
	e.Register(model.SideAsk, 1, 100.0, 10.0, 0)
	e.OnTrade(model.SideAsk, 1, 100.0, true, 10.0)
	// Falls back to a depth factor of 2.
	assert.InDelta(t, 0.5, e.FillProbability(model.SideAsk, 1), 1e-9)
}

func TestFillProbability_ZeroNotionalIsNoSignal(t *testing.T) {
	e := NewEstimator(2.0)
	e.Register(model.SideBid, 1, 100.0, 0, 0)
	e.OnTrade(model.SideBid, 1, 99.0, false, 100.0)
	assert.Zero(t, e.FillProbability(model.SideBid, 1))
}
