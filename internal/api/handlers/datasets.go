package handlers

import (
	"net/http"
	"path/filepath"

	"dca-backtest/internal/analysis"
	"dca-backtest/internal/api/models"
	"dca-backtest/internal/data"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DatasetHandler lists the tick files in TICK_DIR
type DatasetHandler struct {
	tickDir string
	cache   *data.TickCache
	log     *zap.Logger
}

func NewDatasetHandler(tickDir string, cache *data.TickCache, log *zap.Logger) *DatasetHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &DatasetHandler{tickDir: tickDir, cache: cache, log: log}
}

// ListDatasets handles GET /api/v1/datasets
// ?stats=true loads every file and adds price/volume statistics.
func (h *DatasetHandler) ListDatasets(c *gin.Context) {
	datasets := []models.DatasetInfo{}
	withStats := c.Query("stats") == "true"

	files, err := data.ListTickFiles(h.tickDir)
	if err != nil {
		h.log.Warn("reading tick directory", zap.String("dir", h.tickDir), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"datasets": datasets, "count": 0})
		return
	}

	for _, f := range files {
		info := models.DatasetInfo{
			ID:         f.Name,
			File:       filepath.Base(f.Path),
			Format:     f.Format,
			SizeBytes:  f.Size,
			ModifiedAt: f.ModTime,
		}
		if withStats {
			ticks, err := data.LoadTicksCached(h.cache, f.Path, 0)
			if err != nil {
				h.log.Warn("skipping dataset", zap.String("file", f.Path), zap.Error(err))
				continue
			}
			stats := analysis.ComputeTickStats(ticks)
			info.Stats = &stats
		}
		datasets = append(datasets, info)
	}

	c.JSON(http.StatusOK, gin.H{
		"datasets": datasets,
		"count":    len(datasets),
	})
}
