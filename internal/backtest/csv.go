package backtest

import (
	"encoding/csv"
	"os"
	"strconv"

	"mm-backtest/internal/model"
)

// WriteFillsCSV exports the per-fill trade log of one run.
func WriteFillsCSV(path string, fills []model.Fill) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"asset",
		"side",
		"tier",
		"price",
		"notional",
		"timestamp_ms",
		"rebate",
		"mid_at_fill",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range fills {
		row := []string{
			r.Asset,
			r.Side.String(),
			strconv.Itoa(r.Tier),
			fmtFloat(r.Price),
			fmtFloat(r.Notional),
			strconv.FormatInt(r.TimestampMS, 10),
			fmtFloat(r.Rebate),
			fmtFloat(r.MidAtFill),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

// WriteResultsCSV exports one flat row per run, so sweeps can be compared and
// archived as a table.
func WriteResultsCSV(path string, results []*Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"asset",
		"base_spread_bps",
		"max_inventory_notional",
		"min_order_notional",
		"ticks_processed",
		"ticks_skipped",
		"total_fills",
		"bid_fills",
		"ask_fills",
		"total_volume",
		"total_rebates",
		"spread_pnl",
		"inventory_pnl",
		"total_pnl",
		"flatten_cost",
		"max_drawdown",
		"max_inventory",
		"sharpe_ratio",
		"fills_per_hour",
		"halted_pct",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range results {
		row := []string{
			r.Asset,
			fmtFloat(r.Config.BaseSpreadBps),
			fmtFloat(r.Config.MaxInventoryNotional),
			fmtFloat(r.Config.MinOrderNotional),
			strconv.Itoa(r.TicksProcessed),
			strconv.Itoa(r.TicksSkipped),
			strconv.Itoa(r.TotalFills),
			strconv.Itoa(r.BidFills),
			strconv.Itoa(r.AskFills),
			fmtFloat(r.TotalVolume),
			fmtFloat(r.TotalRebates),
			fmtFloat(r.SpreadPnL),
			fmtFloat(r.InventoryPnL),
			fmtFloat(r.TotalPnL),
			fmtFloat(r.FlattenCost),
			fmtFloat(r.MaxDrawdown),
			fmtFloat(r.MaxInventory),
			fmtFloat(r.SharpeRatio),
			fmtFloat(r.FillsPerHour),
			fmtFloat(r.HaltedPct),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
