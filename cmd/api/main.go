package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"mm-backtest/internal/api/handlers"
	"mm-backtest/internal/api/middleware"
	"mm-backtest/internal/store/postgres"
)

func main() {
	_ = godotenv.Load()

	var log *zap.Logger
	var err error
	if os.Getenv("API_ENV") == "production" {
		log, err = zap.NewProduction()
	} else {
		log, err = zap.NewDevelopment()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}

	// The archive is optional; the API runs fine without Postgres.
	var store *postgres.ResultStore
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		store, err = postgres.Open(ctx, dsn)
		cancel()
		if err != nil {
			log.Fatal("open result store", zap.Error(err))
		}
		defer store.Close()
		log.Info("result archive enabled")
	}

	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.CORS(corsOrigins()))
	router.Use(middleware.Logger(log))
	router.Use(middleware.ErrorHandler(log))

	backtestHandler := handlers.NewBacktestHandler(log, store)
	sweepHandler := handlers.NewSweepHandler(log)
	runsHandler := handlers.NewRunsHandler(log, store)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.POST("/backtest", backtestHandler.RunBacktest)
		api.POST("/sweep", sweepHandler.RunSweep)
		api.GET("/runs", runsHandler.ListRuns)
	}

	addr := ":" + port
	log.Info("starting API server", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func corsOrigins() []string {
	raw := os.Getenv("CORS_ORIGINS")
	if raw == "" {
		return nil
	}
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
