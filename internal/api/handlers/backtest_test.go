package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mm-backtest/internal/api/models"
)

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	log := zap.NewNop()
	r.POST("/api/v1/backtest", NewBacktestHandler(log, nil).RunBacktest)
	r.POST("/api/v1/sweep", NewSweepHandler(log).RunSweep)
	r.GET("/api/v1/runs", NewRunsHandler(log, nil).ListRuns)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func inlineTicks(n int) []map[string]any {
	out := make([]map[string]any, n)
	for i := 0; i < n; i++ {
		out[i] = map[string]any{
			"timestamp_ms": i * 1000,
			"best_bid":     99.99,
			"best_ask":     100.01,
			"mid":          100.0,
			"spread_bps":   2.0,
		}
	}
	return out
}

func validConfig() map[string]any {
	return map[string]any{
		"asset":                  "BTC",
		"tick_size":              0.01,
		"min_order_notional":     25,
		"max_inventory_notional": 500,
		"base_spread_bps":        2.0,
	}
}

func TestRunBacktest_InlineTicks(t *testing.T) {
	r := testRouter()
	w := postJSON(t, r, "/api/v1/backtest", map[string]any{
		"config": validConfig(),
		"ticks":  inlineTicks(50),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.BacktestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "completed", resp.Status)
	require.NotNil(t, resp.Result)
	assert.Equal(t, 50, resp.Result.TicksProcessed)
	// Fills are stripped unless requested.
	assert.Nil(t, resp.Result.Fills)
}

func TestRunBacktest_MissingConfig(t *testing.T) {
	r := testRouter()
	w := postJSON(t, r, "/api/v1/backtest", map[string]any{
		"ticks": inlineTicks(5),
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_REQUEST", resp.Error.Code)
}

func TestRunBacktest_InvalidConfig(t *testing.T) {
	r := testRouter()
	cfg := validConfig()
	cfg["tick_size"] = 0
	w := postJSON(t, r, "/api/v1/backtest", map[string]any{
		"config": cfg,
		"ticks":  inlineTicks(5),
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_CONFIG", resp.Error.Code)
}

func TestRunBacktest_LimitTicks(t *testing.T) {
	r := testRouter()
	w := postJSON(t, r, "/api/v1/backtest", map[string]any{
		"config":  validConfig(),
		"ticks":   inlineTicks(100),
		"options": map[string]any{"limit_ticks": 10},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.BacktestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 10, resp.Result.TicksProcessed)
}

func TestRunBacktest_LimitKeepsEarliestByTimestamp(t *testing.T) {
	// 20 ticks sent newest first: the 10 oldest are usable, the 10 newest
	// are not. A limit of 10 must keep the oldest ticks by timestamp, not
	// the first ten by arrival order.
	ticks := make([]map[string]any, 0, 20)
	for i := 19; i >= 0; i-- {
		tk := map[string]any{
			"timestamp_ms": i * 1000,
			"best_bid":     99.99,
			"best_ask":     100.01,
			"mid":          100.0,
			"spread_bps":   2.0,
		}
		if i >= 10 {
			tk["best_bid"] = 0.0 // unusable
		}
		ticks = append(ticks, tk)
	}

	r := testRouter()
	w := postJSON(t, r, "/api/v1/backtest", map[string]any{
		"config":  validConfig(),
		"ticks":   ticks,
		"options": map[string]any{"limit_ticks": 10},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.BacktestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 10, resp.Result.TicksProcessed)
	assert.Zero(t, resp.Result.TicksSkipped)
}

func TestResolveTicks_CacheHandsOutPrivateCopies(t *testing.T) {
	t.Setenv("ENABLE_TICK_CACHE", "true")

	path := filepath.Join(t.TempDir(), "ticks.csv")
	csv := "1000,BTC,99.99,100.01,100.0,2.0\n" +
		"2000,BTC,99.98,100.02,100.0,4.0\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	first, err := resolveTicks(nil, path)
	require.NoError(t, err)
	require.Len(t, first, 2)

	// Mutating one caller's slice must not leak into the cached copy.
	first[0].Mid = -1

	second, err := resolveTicks(nil, path)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.InDelta(t, 100.0, second[0].Mid, 1e-12)
}

func TestRunBacktest_BadDataPath(t *testing.T) {
	r := testRouter()
	w := postJSON(t, r, "/api/v1/backtest", map[string]any{
		"config":    validConfig(),
		"data_path": "/nonexistent/ticks.csv",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "DATA_LOAD_ERROR", resp.Error.Code)
}

func TestRunSweep_RanksResults(t *testing.T) {
	r := testRouter()
	w := postJSON(t, r, "/api/v1/sweep", map[string]any{
		"config": validConfig(),
		"ticks":  inlineTicks(100),
		"grid": map[string]any{
			"spread_bps": []float64{1.0, 2.0},
		},
		"top": 1,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.SweepResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Results, 1)
}

func TestListRuns_NoArchiveConfigured(t *testing.T) {
	r := testRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "NO_ARCHIVE", resp.Error.Code)
}
