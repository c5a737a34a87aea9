package api

import (
	"net/http"

	"dca-backtest/internal/api/handlers"
	"dca-backtest/internal/api/middleware"
	"dca-backtest/internal/data"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Options configure the API router.
type Options struct {
	TickDir     string
	LiveDir     string
	Cache       *data.TickCache // nil disables tick caching
	StoreSize   int
	Logger      *zap.Logger
	EnableCORS  bool
	RequestLogs bool
}

// NewRouter builds the gin engine with every /api/v1 route registered.
func NewRouter(opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()
	if opts.EnableCORS {
		router.Use(middleware.CORS())
	}
	if opts.RequestLogs {
		router.Use(middleware.Logger(log))
	}
	router.Use(middleware.ErrorHandler(log))

	store := handlers.NewResultStore(opts.StoreSize)
	backtestHandler := handlers.NewBacktestHandler(store, opts.TickDir, opts.LiveDir, opts.Cache, log)
	configHandler := handlers.NewConfigHandler(opts.LiveDir, log)
	datasetHandler := handlers.NewDatasetHandler(opts.TickDir, opts.Cache, log)
	strategyHandler := handlers.NewStrategyHandler()

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "stored_results": store.Len()})
	})

	api := router.Group("/api/v1")
	{
		api.POST("/backtest", backtestHandler.RunBacktest)
		api.GET("/backtest/:id/fills", backtestHandler.GetFills)
		api.POST("/backtest/compare", backtestHandler.CompareBacktests)

		api.GET("/configs", configHandler.ListConfigs)
		api.GET("/configs/:id", configHandler.GetConfig)
		api.GET("/strategies", strategyHandler.ListStrategies)
		api.GET("/datasets", datasetHandler.ListDatasets)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Not found"}})
	})
	return router
}
