package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mm-backtest/internal/model"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validYAML = `
asset:
  asset: BTC
  tick_size: 0.5
  min_order_notional: 25
  max_inventory_notional: 500
  base_spread_bps: 2.0
  volatility_fraction: 0.5
run:
  fill_threshold: 0.8
  inventory_tolerance: 1.2
sweep:
  spread_bps: [1.0, 2.0]
  max_inventory: [200]
`

func TestLoad_Valid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	asset := cfg.AssetModel()
	assert.Equal(t, "BTC", asset.Asset)
	assert.InDelta(t, 0.5, asset.TickSize, 1e-12)
	// Regime defaults to calm when omitted.
	assert.Equal(t, model.RegimeCalm, asset.Regime)
}

func TestRunParams_OverlaysNonZeroFields(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	p := cfg.RunParams()
	defaults := model.DefaultRunParams()

	// Overridden fields take the file value.
	assert.InDelta(t, 0.8, p.FillThreshold, 1e-12)
	assert.InDelta(t, 1.2, p.InventoryTolerance, 1e-12)
	// Everything else keeps the production defaults.
	assert.InDelta(t, defaults.MakerRebateRate, p.MakerRebateRate, 1e-12)
	assert.InDelta(t, defaults.CalmThreshold, p.CalmThreshold, 1e-12)
	assert.Equal(t, defaults.RegimeCadenceTicks, p.RegimeCadenceTicks)
}

func TestSweepGrid_ConfiguredAndDefault(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)
	g := cfg.SweepGrid()
	assert.Equal(t, []float64{1.0, 2.0}, g.SpreadBps)
	assert.Equal(t, []float64{200}, g.MaxInventory)

	// No sweep section: fall back to the default ranges.
	noSweep := `
asset:
  asset: BTC
  tick_size: 0.5
  min_order_notional: 25
  max_inventory_notional: 500
  base_spread_bps: 2.0
`
	cfg, err = Load(writeConfig(t, noSweep))
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.SweepGrid().SpreadBps)
}

func TestLoad_InvalidAsset(t *testing.T) {
	bad := `
asset:
  asset: BTC
  tick_size: 0
  min_order_notional: 25
  max_inventory_notional: 500
`
	_, err := Load(writeConfig(t, bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tick_size")
}

func TestLoad_InvalidRunOverride(t *testing.T) {
	bad := `
asset:
  asset: BTC
  tick_size: 0.5
  min_order_notional: 25
  max_inventory_notional: 500
run:
  fill_threshold: 1.5
`
	_, err := Load(writeConfig(t, bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fill_threshold")
}

func TestLoadUnchecked_SkipsValidation(t *testing.T) {
	bad := `
asset:
  asset: BTC
  tick_size: 0
`
	cfg, err := LoadUnchecked(writeConfig(t, bad))
	require.NoError(t, err)
	assert.Equal(t, "BTC", cfg.Asset.Asset)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
