package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"mm-backtest/internal/analysis"
	"mm-backtest/internal/backtest"
	"mm-backtest/internal/config"
	"mm-backtest/internal/data"
	"mm-backtest/internal/model"
	"mm-backtest/internal/store/postgres"
	"mm-backtest/internal/sweep"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "backtest":
		cmdBacktest(os.Args[2:])
	case "sweep":
		cmdSweep(os.Args[2:])
	case "analyze":
		cmdAnalyze(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli backtest --data ticks/btc.csv --config examples/config.yaml --fills results/fills.csv")
	fmt.Println("  cli sweep --data ticks/btc.csv --config examples/config.yaml --out results/sweep.csv")
	fmt.Println("  cli analyze --data ticks/")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - backtest replays one parameter set and prints the PnL summary")
	fmt.Println("  - sweep ranks every spread/inventory/size combination over the same ticks")
	fmt.Println("  - analyze scores each tick file by its oracle spread capture")
	fmt.Println("  - set DATABASE_URL to archive results to Postgres")
}

func newLogger(verbose bool) *zap.Logger {
	if verbose {
		log, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		return log
	}
	return zap.NewNop()
}

func cmdBacktest(args []string) {
	fs := flag.NewFlagSet("backtest", flag.ExitOnError)
	dataPath := fs.String("data", "", "Path to tick CSV or JSON (comma-separated for multiple files)")
	cfgPath := fs.String("config", "", "Path to YAML config")
	fillsPath := fs.String("fills", "", "Optional path to write the fill ledger CSV")
	n := fs.Int("n", 0, "Optional: limit to first N ticks (0=all)")
	verbose := fs.Bool("v", false, "Log regime transitions and fills")
	archive := fs.Bool("archive", false, "Archive the result to Postgres (needs DATABASE_URL)")
	_ = fs.Parse(args)

	if *cfgPath == "" || *dataPath == "" {
		fmt.Println("--config and --data are required")
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}

	ticks, dropped := loadAll(*dataPath)
	if *n > 0 && *n < len(ticks) {
		ticks = ticks[:*n]
	}

	log := newLogger(*verbose)
	defer log.Sync()

	engine := backtest.New(cfg.RunParams()).WithLogger(log)
	res, err := engine.Run(ticks, cfg.AssetModel())
	if err != nil {
		panic(err)
	}

	if *fillsPath != "" {
		if err := os.MkdirAll(filepath.Dir(*fillsPath), 0o755); err != nil {
			panic(err)
		}
		if err := backtest.WriteFillsCSV(*fillsPath, res.Fills); err != nil {
			panic(err)
		}
		fmt.Printf("Wrote %d fills to %s\n", len(res.Fills), *fillsPath)
	}

	if *archive {
		archiveResult(res)
	}

	printSummary(res, dropped)
}

func cmdSweep(args []string) {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	dataPath := fs.String("data", "", "Path to tick CSV or JSON (comma-separated for multiple files)")
	cfgPath := fs.String("config", "", "Path to YAML config")
	outPath := fs.String("out", "results/sweep.csv", "Output CSV path")
	workers := fs.Int("workers", 0, "Parallel runs (0=default)")
	top := fs.Int("top", 10, "Rows to print (0=all)")
	verbose := fs.Bool("v", false, "Log per-combination progress")
	_ = fs.Parse(args)

	if *cfgPath == "" || *dataPath == "" {
		fmt.Println("--config and --data are required")
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}
	ticks, _ := loadAll(*dataPath)

	log := newLogger(*verbose)
	defer log.Sync()

	engine := backtest.New(cfg.RunParams()).WithLogger(log)
	driver := sweep.NewDriver(engine, *workers, log)

	start := time.Now()
	results, err := driver.Run(context.Background(), ticks, cfg.AssetModel(), cfg.SweepGrid())
	if err != nil {
		panic(err)
	}
	fmt.Printf("Swept %d combinations over %d ticks in %s\n\n", len(results), len(ticks), time.Since(start).Round(time.Millisecond))

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		panic(err)
	}
	if err := backtest.WriteResultsCSV(*outPath, results); err != nil {
		panic(err)
	}

	shown := results
	if *top > 0 && *top < len(shown) {
		shown = shown[:*top]
	}
	fmt.Printf("%-4s %-10s %-8s %-8s %-12s %-8s %-8s %-8s\n",
		"rank", "spread_bps", "max_inv", "min_ord", "pnl", "sharpe", "fills", "halt%")
	for i, r := range shown {
		fmt.Printf("%-4d %-10.2f %-8.0f %-8.0f %-12.4f %-8.3f %-8d %-8.1f\n",
			i+1,
			r.Config.BaseSpreadBps,
			r.Config.MaxInventoryNotional,
			r.Config.MinOrderNotional,
			r.TotalPnL,
			r.SharpeRatio,
			r.TotalFills,
			r.HaltedPct,
		)
	}
	fmt.Printf("\nWrote %d rows to %s\n", len(results), *outPath)
}

func cmdAnalyze(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	dataPaths := fs.String("data", "", "Comma-separated tick files or a directory")
	notional := fs.Float64("notional", 12.0, "Round-trip notional for the oracle capture")
	_ = fs.Parse(args)

	if *dataPaths == "" {
		fmt.Println("--data is required")
		os.Exit(2)
	}

	var files []string
	for _, p := range splitPaths(*dataPaths) {
		info, err := os.Stat(p)
		if err != nil {
			panic(err)
		}
		if info.IsDir() {
			entries, err := os.ReadDir(p)
			if err != nil {
				panic(err)
			}
			for _, e := range entries {
				if e.IsDir() {
					continue
				}
				ext := strings.ToLower(filepath.Ext(e.Name()))
				if ext != ".csv" && ext != ".json" {
					continue
				}
				files = append(files, filepath.Join(p, e.Name()))
			}
		} else {
			files = append(files, p)
		}
	}

	byAsset, err := data.GroupByAsset(files)
	if err != nil {
		panic(err)
	}

	ranked := analysis.RankByOracleCapture(byAsset, *notional)
	fmt.Printf("%-4s %-14s %-8s %-10s %-10s %-10s %-12s\n",
		"rank", "asset", "ticks", "spread_bps", "vol", "p95-p05", "oracle$")
	for i, r := range ranked {
		fmt.Printf("%-4d %-14s %-8d %-10.2f %-10.6f %-10.2f %-12.4f\n",
			i+1,
			r.Asset,
			r.Usable,
			r.MeanSpreadBps,
			r.RealizedVol,
			r.P95Mid-r.P05Mid,
			r.OracleCapture,
		)
	}
}

func printSummary(res *backtest.Result, dropped int) {
	fmt.Printf("Asset=%s ticks=%d skipped=%d dropped=%d halted=%.1f%%\n",
		res.Asset, res.TicksProcessed, res.TicksSkipped, dropped, res.HaltedPct)
	fmt.Printf("Fills=%d (bid=%d ask=%d) volume=%.2f fills/hr=%.2f\n",
		res.TotalFills, res.BidFills, res.AskFills, res.TotalVolume, res.FillsPerHour)
	fmt.Printf("PnL=%.4f rebates=%.4f spread=%.4f inventory=%.4f flatten_cost=%.4f\n",
		res.TotalPnL, res.TotalRebates, res.SpreadPnL, res.InventoryPnL, res.FlattenCost)
	fmt.Printf("Sharpe=%.3f max_drawdown=%.4f max_inventory=%.2f\n",
		res.SharpeRatio, res.MaxDrawdown, res.MaxInventory)
}

func archiveResult(res *backtest.Result) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		fmt.Println("--archive set but DATABASE_URL is empty, skipping")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		panic(err)
	}
	defer store.Close()
	id := uuid.NewString()
	if err := store.Save(ctx, id, res); err != nil {
		panic(err)
	}
	fmt.Printf("Archived run %s\n", id)
}

func loadAll(dataPaths string) ([]model.Tick, int) {
	var ticks []model.Tick
	dropped := 0
	for _, p := range splitPaths(dataPaths) {
		res, err := data.LoadTicks(p)
		if err != nil {
			panic(err)
		}
		ticks = append(ticks, res.Ticks...)
		dropped += res.Dropped
	}
	model.SortTicks(ticks)
	return ticks, dropped
}

func splitPaths(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
