package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"mm-backtest/internal/api/models"
	"mm-backtest/internal/backtest"
	"mm-backtest/internal/metrics"
	"mm-backtest/internal/model"
	"mm-backtest/internal/sweep"
)

// SweepHandler runs parameter sweeps.
type SweepHandler struct {
	Log *zap.Logger
}

func NewSweepHandler(log *zap.Logger) *SweepHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &SweepHandler{Log: log}
}

// RunSweep handles POST /api/v1/sweep.
func (h *SweepHandler) RunSweep(c *gin.Context) {
	var req models.SweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	ticks, err := resolveTicks(req.Ticks, req.DataPath)
	if err != nil {
		writeError(c, http.StatusBadRequest, "DATA_LOAD_ERROR", err.Error())
		return
	}

	base := req.Config.ToModel()
	if err := base.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
		return
	}
	params := req.Run.Apply(model.DefaultRunParams())

	grid := req.Grid
	if len(grid.SpreadBps) == 0 && len(grid.MaxInventory) == 0 && len(grid.MinOrderNotional) == 0 {
		grid = sweep.DefaultGrid()
	}

	engine := backtest.New(params).WithLogger(h.Log)
	driver := sweep.NewDriver(engine, req.Workers, h.Log)

	start := time.Now()
	results, err := driver.Run(c.Request.Context(), ticks, base, grid)
	metrics.RunDuration.WithLabelValues("sweep").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RunsTotal.WithLabelValues("sweep", "error").Inc()
		writeError(c, http.StatusInternalServerError, "SWEEP_ERROR", err.Error())
		return
	}
	metrics.RunsTotal.WithLabelValues("sweep", "ok").Inc()

	if req.Top > 0 && req.Top < len(results) {
		results = results[:req.Top]
	}
	c.JSON(http.StatusOK, models.SweepResponse{
		ID:      uuid.NewString(),
		Status:  "completed",
		Count:   len(results),
		Results: results,
	})
}
