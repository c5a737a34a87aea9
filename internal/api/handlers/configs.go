package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"dca-backtest/internal/api/models"
	"dca-backtest/internal/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ConfigHandler lists the live config presets in LIVE_CONFIG_DIR
type ConfigHandler struct {
	liveDir string
	log     *zap.Logger
}

func NewConfigHandler(liveDir string, log *zap.Logger) *ConfigHandler {
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("using live config directory", zap.String("dir", liveDir))
	return &ConfigHandler{liveDir: liveDir, log: log}
}

// LiveDir returns the live config directory path (for debugging)
func (h *ConfigHandler) LiveDir() string {
	return h.liveDir
}

// ListConfigs handles GET /api/v1/configs
func (h *ConfigHandler) ListConfigs(c *gin.Context) {
	presets := []models.LiveConfigInfo{}

	entries, err := os.ReadDir(h.liveDir)
	if err != nil {
		h.log.Warn("reading live config directory", zap.String("dir", h.liveDir), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"configs": presets})
		return
	}

	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(h.liveDir, entry.Name())
		info, err := loadLiveConfigInfo(path, entry.Name())
		if err != nil {
			h.log.Warn("skipping live config", zap.String("file", path), zap.Error(err))
			continue
		}
		presets = append(presets, *info)
	}

	c.JSON(http.StatusOK, gin.H{"configs": presets})
}

// GetConfig handles GET /api/v1/configs/:id and returns the parsed preset.
func (h *ConfigHandler) GetConfig(c *gin.Context) {
	id := filepath.Base(c.Param("id"))
	for _, ext := range []string{".yaml", ".yml"} {
		path := filepath.Join(h.liveDir, id+ext)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		live, err := config.LoadLive(path)
		if err != nil {
			writeErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "live_config": live})
		return
	}
	writeError(c, http.StatusNotFound, CodeNotFound, "no live config "+id)
}

func loadLiveConfigInfo(path, filename string) (*models.LiveConfigInfo, error) {
	live, err := config.LoadLive(path)
	if err != nil {
		return nil, err
	}
	typ, err := config.DetermineConfigType(live)
	if err != nil {
		return nil, err
	}
	return &models.LiveConfigInfo{
		// e.g. "vanilla_default.yaml" -> "vanilla_default"
		ID:                  strings.TrimSuffix(filename, filepath.Ext(filename)),
		File:                path,
		ConfigType:          typ,
		MaxPosition:         live.MaxPosition,
		BankruptcyThreshold: live.BankruptcyThreshold,
		DoLong:              live.DoLong == nil || *live.DoLong,
		DoShort:             live.DoShort != nil && *live.DoShort,
	}, nil
}
