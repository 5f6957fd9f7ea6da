package data

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"mm-backtest/internal/model"
)

// Harvested tick CSVs carry one row per observation:
//
//	timestamp_ms,asset,best_bid,best_ask,mid,spread_bps
//
// Collection upstream can leave gaps, duplicates, and malformed rows, so the
// loader is tolerant: bad rows are dropped and counted, and the output is
// sorted by timestamp.

// LoadResult is a tick series plus the loader's drop accounting.
type LoadResult struct {
	Ticks   []model.Tick
	Dropped int
}

// LoadTicksCSV reads one tick file. Only an unreadable file is an error;
// individual malformed rows are not.
func LoadTicksCSV(path string) (*LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tick file: %w", err)
	}
	defer f.Close()

	out := &LoadResult{}
	sc := bufio.NewScanner(f)
	// Tick rows are short, but allow for oversized lines from a corrupted
	// harvest rather than aborting the whole file.
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	first := true
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if first {
			first = false
			if strings.HasPrefix(line, "timestamp") {
				continue // header row
			}
		}
		tick, ok := parseTickRow(line)
		if !ok || !tick.Usable() {
			out.Dropped++
			continue
		}
		out.Ticks = append(out.Ticks, tick)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read tick file: %w", err)
	}

	model.SortTicks(out.Ticks)
	return out, nil
}

// LoadTicksCSVs concatenates several daily files into one sorted series.
func LoadTicksCSVs(paths []string) (*LoadResult, error) {
	out := &LoadResult{}
	for _, p := range paths {
		one, err := LoadTicksCSV(p)
		if err != nil {
			return nil, err
		}
		out.Ticks = append(out.Ticks, one.Ticks...)
		out.Dropped += one.Dropped
	}
	model.SortTicks(out.Ticks)
	return out, nil
}

func parseTickRow(line string) (model.Tick, bool) {
	parts := strings.Split(line, ",")
	if len(parts) < 6 {
		return model.Tick{}, false
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return model.Tick{}, false
	}
	vals := make([]float64, 4)
	for i, idx := range []int{2, 3, 4, 5} {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[idx]), 64)
		if err != nil {
			return model.Tick{}, false
		}
		vals[i] = v
	}
	return model.Tick{
		TimestampMS: ts,
		BestBid:     vals[0],
		BestAsk:     vals[1],
		Mid:         vals[2],
		SpreadBps:   vals[3],
	}, true
}
