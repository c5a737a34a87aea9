package main

import (
	"fmt"
	"os"
	"strconv"

	"dca-backtest/internal/api"
	"dca-backtest/internal/api/handlers"
	"dca-backtest/internal/data"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Get configuration from environment
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	production := os.Getenv("API_ENV") == "production"

	var logger *zap.Logger
	var err error
	if production {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if production {
		gin.SetMode(gin.ReleaseMode)
	}

	storeSize := 100
	if v := os.Getenv("RESULT_STORE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			storeSize = n
		}
	}

	tickDir := handlers.TickDirFromEnv()
	liveDir := handlers.LiveDirFromEnv()
	cache := data.GetCache()
	logger.Info("configuration",
		zap.String("tick_dir", tickDir),
		zap.String("live_config_dir", liveDir),
		zap.Bool("tick_cache", cache != nil),
		zap.Int("result_store_size", storeSize),
	)

	router := api.NewRouter(api.Options{
		TickDir:     tickDir,
		LiveDir:     liveDir,
		Cache:       cache,
		StoreSize:   storeSize,
		Logger:      logger,
		EnableCORS:  true,
		RequestLogs: true,
	})

	addr := fmt.Sprintf(":%s", port)
	logger.Info("starting API server", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
