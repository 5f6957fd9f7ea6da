package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"mm-backtest/internal/api/models"
	"mm-backtest/internal/backtest"
	"mm-backtest/internal/data"
	"mm-backtest/internal/metrics"
	"mm-backtest/internal/model"
	"mm-backtest/internal/store/postgres"
)

// BacktestHandler runs single backtests over uploaded or server-side ticks.
type BacktestHandler struct {
	Log   *zap.Logger
	Store *postgres.ResultStore // nil when no archive is configured
}

func NewBacktestHandler(log *zap.Logger, store *postgres.ResultStore) *BacktestHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &BacktestHandler{Log: log, Store: store}
}

// RunBacktest handles POST /api/v1/backtest.
func (h *BacktestHandler) RunBacktest(c *gin.Context) {
	var req models.BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	ticks, err := resolveTicks(req.Ticks, req.DataPath)
	if err != nil {
		writeError(c, http.StatusBadRequest, "DATA_LOAD_ERROR", err.Error())
		return
	}
	// Sort before truncating so a limit keeps the earliest ticks by
	// timestamp, not by arrival order of an unsorted inline payload.
	model.SortTicks(ticks)
	if req.Options.LimitTicks > 0 && req.Options.LimitTicks < len(ticks) {
		ticks = ticks[:req.Options.LimitTicks]
	}

	cfg := req.Config.ToModel()
	params := req.Run.Apply(model.DefaultRunParams())

	engine := backtest.New(params).WithLogger(h.Log)

	start := time.Now()
	result, err := engine.Run(ticks, cfg)
	metrics.RunDuration.WithLabelValues("backtest").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RunsTotal.WithLabelValues("backtest", "error").Inc()
		writeError(c, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
		return
	}
	metrics.RunsTotal.WithLabelValues("backtest", "ok").Inc()
	metrics.TicksReplayed.Add(float64(result.TicksProcessed))

	id := uuid.NewString()
	if req.Options.Archive && h.Store != nil {
		if err := h.Store.Save(c.Request.Context(), id, result); err != nil {
			// The run itself succeeded; report it and note the archive miss.
			h.Log.Warn("archive failed", zap.String("id", id), zap.Error(err))
		}
	}

	if !req.Options.IncludeFills {
		result.Fills = nil
	}
	c.JSON(http.StatusOK, models.BacktestResponse{
		ID:     id,
		Status: "completed",
		Result: result,
	})
}

// resolveTicks prefers inline ticks and falls back to a server-side file,
// consulting the tick cache when it is enabled. File-backed ticks are always
// returned as a private copy: the engine sorts its input in place, and a
// cached slice must never be mutated under a concurrent request.
func resolveTicks(inline []model.Tick, path string) ([]model.Tick, error) {
	if len(inline) > 0 {
		return inline, nil
	}
	if path == "" {
		// Zero ticks is a legal zero-activity run.
		return nil, nil
	}
	cache := data.GetCache()
	if cached, ok := cache.Get(path); ok {
		return copyTicks(cached.Ticks), nil
	}
	loaded, err := data.LoadTicks(path)
	if err != nil {
		return nil, err
	}
	cache.Set(path, loaded)
	return copyTicks(loaded.Ticks), nil
}

func copyTicks(ticks []model.Tick) []model.Tick {
	out := make([]model.Tick, len(ticks))
	copy(out, ticks)
	return out
}

func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{Code: code, Message: message},
	})
}
