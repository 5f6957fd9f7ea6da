package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mm-backtest/internal/store/postgres"
)

// RunsHandler serves the archived-run history.
type RunsHandler struct {
	Log   *zap.Logger
	Store *postgres.ResultStore
}

func NewRunsHandler(log *zap.Logger, store *postgres.ResultStore) *RunsHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &RunsHandler{Log: log, Store: store}
}

// ListRuns handles GET /api/v1/runs?asset=BTC&limit=50.
func (h *RunsHandler) ListRuns(c *gin.Context) {
	if h.Store == nil {
		writeError(c, http.StatusServiceUnavailable, "NO_ARCHIVE",
			"result archive is not configured; set DATABASE_URL")
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := h.Store.List(c.Request.Context(), c.Query("asset"), limit)
	if err != nil {
		h.Log.Error("list runs", zap.Error(err))
		writeError(c, http.StatusInternalServerError, "ARCHIVE_ERROR", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}
