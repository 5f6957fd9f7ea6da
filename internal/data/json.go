package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mm-backtest/internal/model"
)

// tickFile is the JSON export shape: either a bare array of ticks or an
// object wrapping them with the asset symbol.
type tickFile struct {
	Asset string       `json:"asset"`
	Ticks []model.Tick `json:"ticks"`
}

// LoadTicksJSON reads ticks from a JSON file. Both a bare array and an
// {"asset": ..., "ticks": [...]} wrapper are accepted. Unusable ticks are
// dropped and counted, and the result is sorted by timestamp.
func LoadTicksJSON(path string) (LoadResult, error) {
	var res LoadResult
	raw, err := os.ReadFile(path)
	if err != nil {
		return res, fmt.Errorf("read %s: %w", path, err)
	}

	var ticks []model.Tick
	if err := json.Unmarshal(raw, &ticks); err != nil {
		var wrapped tickFile
		if err2 := json.Unmarshal(raw, &wrapped); err2 != nil {
			return res, fmt.Errorf("parse %s: %w", path, err)
		}
		ticks = wrapped.Ticks
	}

	for _, t := range ticks {
		if !t.Usable() {
			res.Dropped++
			continue
		}
		res.Ticks = append(res.Ticks, t)
	}
	model.SortTicks(res.Ticks)
	return res, nil
}

// LoadTicks dispatches on the file extension: .json files go through the JSON
// loader, everything else is treated as CSV.
func LoadTicks(path string) (LoadResult, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return LoadTicksJSON(path)
	}
	res, err := LoadTicksCSV(path)
	if err != nil {
		return LoadResult{}, err
	}
	return *res, nil
}

// GroupByAsset splits asset-keyed files into a map for ranking. Keys are the
// file base names without extension when no explicit asset is recorded.
func GroupByAsset(paths []string) (map[string][]model.Tick, error) {
	out := map[string][]model.Tick{}
	for _, p := range paths {
		res, err := LoadTicks(p)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		out[name] = append(out[name], res.Ticks...)
	}
	for _, ticks := range out {
		model.SortTicks(ticks)
	}
	return out, nil
}
