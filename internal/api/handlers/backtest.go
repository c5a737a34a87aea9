package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"dca-backtest/internal/analysis"
	"dca-backtest/internal/api/models"
	"dca-backtest/internal/backtest"
	"dca-backtest/internal/config"
	"dca-backtest/internal/data"
	"dca-backtest/internal/model"
	"dca-backtest/internal/strategy"
	"dca-backtest/internal/sweep"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BacktestHandler handles backtest-related requests
type BacktestHandler struct {
	store   *ResultStore
	tickDir string
	liveDir string
	cache   *data.TickCache
	log     *zap.Logger
}

// NewBacktestHandler creates a new backtest handler. cache may be nil.
func NewBacktestHandler(store *ResultStore, tickDir, liveDir string, cache *data.TickCache, log *zap.Logger) *BacktestHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &BacktestHandler{
		store:   store,
		tickDir: tickDir,
		liveDir: liveDir,
		cache:   cache,
		log:     log,
	}
}

// RunBacktest handles POST /api/v1/backtest
func (h *BacktestHandler) RunBacktest(c *gin.Context) {
	var req models.BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}

	cfg, variant, err := h.buildConfig(req.Config)
	if err != nil {
		writeErr(c, err)
		return
	}

	ticks, err := h.loadTicks(req.DataSource, cfg.SampleMS, req.Options.LimitTicks)
	if err != nil {
		writeErr(c, err)
		return
	}

	sts := time.Now()
	params := cfg.ToModelParams()
	result, err := backtest.New().Run(ticks, params, variant)
	if err != nil {
		writeErr(c, err)
		return
	}

	id := h.store.Put(result)
	h.log.Info("backtest completed",
		zap.String("id", id),
		zap.String("symbol", cfg.Symbol),
		zap.String("config_type", variant.Type),
		zap.Int("ticks", len(ticks)),
		zap.Int("fills", len(result.Fills)),
		zap.Bool("bankrupt", result.Stats.Bankrupt),
		zap.Duration("elapsed", time.Since(sts)),
	)

	response := models.BacktestResponse{
		ID:      id,
		Status:  "completed",
		Summary: buildSummary(cfg, variant.Type, result),
	}
	if req.Options.IncludeFills {
		response.Fills = convertFills(result.Fills)
	}
	c.JSON(http.StatusOK, response)
}

// GetFills handles GET /api/v1/backtest/:id/fills
// ?format=csv returns the same columns as the CLI fills dump.
func (h *BacktestHandler) GetFills(c *gin.Context) {
	id := c.Param("id")
	stored, ok := h.store.Get(id)
	if !ok {
		writeError(c, http.StatusNotFound, CodeNotFound, "no backtest result with id "+id)
		return
	}

	fills := stored.Result.Fills
	if c.Query("format") == "csv" {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", `attachment; filename="fills-`+id+`.csv"`)
		c.Status(http.StatusOK)
		if err := backtest.WriteFills(c.Writer, fills); err != nil {
			h.log.Error("writing fills csv", zap.String("id", id), zap.Error(err))
		}
		return
	}

	c.JSON(http.StatusOK, models.FillsResponse{
		ID:    id,
		Count: len(fills),
		Fills: convertFills(fills),
	})
}

// CompareBacktests handles POST /api/v1/backtest/compare
func (h *BacktestHandler) CompareBacktests(c *gin.Context) {
	var req models.CompareBacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}
	seen := make(map[string]bool, len(req.Variations))
	for _, v := range req.Variations {
		if seen[v.Name] {
			writeError(c, http.StatusBadRequest, CodeInvalidRequest, "duplicate variation name "+v.Name)
			return
		}
		seen[v.Name] = true
	}

	// Ticks are loaded once and shared read-only by every run.
	ticks, err := h.loadTicks(req.DataSource, req.BaseConfig.SampleMS, req.Options.LimitTicks)
	if err != nil {
		writeErr(c, err)
		return
	}

	failed := make([]models.ComparisonResult, 0)
	type prepared struct {
		cfg        *config.Config
		configType string
	}
	configs := make(map[string]prepared, len(req.Variations))
	jobs := make([]sweep.Job, 0, len(req.Variations))
	for _, v := range req.Variations {
		cfg, variant, err := h.buildConfig(applyVariation(req.BaseConfig, v))
		if err != nil {
			detail := errorDetail(err)
			failed = append(failed, models.ComparisonResult{Name: v.Name, Error: &detail})
			continue
		}
		configs[v.Name] = prepared{cfg: cfg, configType: variant.Type}
		jobs = append(jobs, sweep.Job{Name: v.Name, Ticks: ticks, Params: cfg.ToModelParams(), Variant: variant})
	}

	outcomes, err := sweep.Run(c.Request.Context(), jobs, 0)
	if err != nil {
		writeError(c, http.StatusInternalServerError, CodeBacktestError, err.Error())
		return
	}

	byName := make(map[string]sweep.Outcome, len(outcomes))
	for _, o := range outcomes {
		if o.Err != nil {
			detail := errorDetail(o.Err)
			failed = append(failed, models.ComparisonResult{Name: o.Name, Error: &detail})
			continue
		}
		byName[o.Name] = o
	}

	comparison := make([]models.ComparisonResult, 0, len(req.Variations))
	for _, r := range sweep.Rank(outcomes) {
		o := byName[r.Name]
		p := configs[r.Name]
		summary := buildSummary(p.cfg, p.configType, o.Result)
		comparison = append(comparison, models.ComparisonResult{
			Rank:    r.Rank,
			Name:    r.Name,
			ID:      h.store.Put(o.Result),
			Summary: &summary,
		})
	}
	comparison = append(comparison, failed...)

	h.log.Info("comparison completed",
		zap.Int("variations", len(req.Variations)),
		zap.Int("failed", len(failed)),
		zap.Int("ticks", len(ticks)),
	)
	c.JSON(http.StatusOK, models.CompareBacktestResponse{Comparison: comparison})
}

// Helper methods

func applyVariation(base config.Config, v models.BacktestVariation) config.Config {
	out := base
	if v.StartingBalance != nil {
		out.StartingBalance = v.StartingBalance
	}
	if v.LatencySimulationMS != nil {
		out.LatencySimulationMS = v.LatencySimulationMS
	}
	if v.MakerFee != nil {
		out.MakerFee = v.MakerFee
	}
	if v.LiveConfigFile != "" {
		out.LiveConfigFile = v.LiveConfigFile
	}
	out.Live = config.MergeLive(base.Live, v.LiveConfig)
	return out
}

// buildConfig resolves live_config_file against LIVE_CONFIG_DIR, merges the
// request overrides onto it, validates the result and resolves the variant.
func (h *BacktestHandler) buildConfig(req config.Config) (*config.Config, strategy.Variant, error) {
	cfg := req
	if cfg.LiveConfigFile != "" {
		// live_config_file is a preset name (e.g. "vanilla_default"), never a path
		name := filepath.Base(cfg.LiveConfigFile)
		if filepath.Ext(name) == "" {
			name += ".yaml"
		}
		loaded, err := config.LoadLive(filepath.Join(h.liveDir, name))
		if err != nil {
			if errors.Is(err, model.ErrInvalidConfig) {
				return nil, strategy.Variant{}, err
			}
			return nil, strategy.Variant{}, model.ConfigError("live_config_file %q: %v", cfg.LiveConfigFile, err)
		}
		cfg.Live = config.MergeLive(loaded, cfg.Live)
	}
	config.Spotify(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, strategy.Variant{}, err
	}
	variant, err := cfg.ToVariant()
	if err != nil {
		return nil, strategy.Variant{}, err
	}
	return &cfg, variant, nil
}

func (h *BacktestHandler) loadTicks(ds models.DataSourceConfig, sampleMS int64, limit int) ([]model.Tick, error) {
	if ds.SampleMS > 0 {
		sampleMS = ds.SampleMS
	}

	var ticks []model.Tick
	switch ds.Type {
	case "inline":
		if err := model.ValidateTicks(ds.Ticks); err != nil {
			return nil, err
		}
		ticks = data.SampleTicks(ds.Ticks, sampleMS)
	case "file":
		name := filepath.Base(ds.TickFile)
		if ds.TickFile == "" || name == "." || name == string(filepath.Separator) {
			return nil, model.DataError("data_source.tick_file is required")
		}
		path := filepath.Join(h.tickDir, name)
		loaded, err := data.LoadTicksCached(h.cache, path, sampleMS)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, model.DataError("tick file %q not found", name)
		}
		if err != nil {
			return nil, err
		}
		ticks = loaded
	default:
		return nil, model.DataError("unsupported data source type %q", ds.Type)
	}

	if limit > 0 && limit < len(ticks) {
		ticks = ticks[:limit]
	}
	return ticks, nil
}

func buildSummary(cfg *config.Config, configType string, result *backtest.Result) models.BacktestSummary {
	s := result.Stats
	return models.BacktestSummary{
		Symbol:         cfg.Symbol,
		ConfigType:     configType,
		Ticks:          s.Ticks,
		ProcessedTicks: s.ProcessedTicks,
		BacktestWindow: models.TimeWindow{
			Start: time.UnixMilli(s.FirstTimestamp).UTC(),
			End:   time.UnixMilli(s.LastTimestamp).UTC(),
		},
		Info:            result.Info.Tuple(),
		Bankrupt:        s.Bankrupt,
		StopReason:      s.StopReason,
		OrdersPlaced:    s.OrdersPlaced,
		OrdersCancelled: s.OrdersCancelled,
		RejectedFills:   s.RejectedFills,
		MaxAbsPosition:  s.MaxAbsPosition,
		FinalPosition:   s.FinalPosition,
		Report:          analysis.Analyze(result),
	}
}

func convertFills(fills []backtest.Fill) []models.FillRow {
	out := make([]models.FillRow, len(fills))
	for i, f := range fills {
		out[i] = models.FillRow{
			Index:         f.Index,
			TickIndex:     f.TickIndex,
			Timestamp:     f.Timestamp,
			OrderID:       f.OrderID,
			PlacedAt:      f.PlacedAt,
			Side:          string(f.Side),
			Kind:          string(f.Kind),
			Level:         f.Level,
			Price:         f.Price,
			Qty:           f.Qty,
			FeePaid:       f.FeePaid,
			PNL:           f.PNL,
			Balance:       f.BalanceAfter,
			PositionSize:  f.PositionAfter,
			PositionPrice: f.PositionPriceAfter,
			Equity:        f.EquityAfter,
		}
	}
	return out
}

// TickDirFromEnv returns TICK_DIR or ./data/ticks.
func TickDirFromEnv() string {
	return dirFromEnv("TICK_DIR", filepath.Join("data", "ticks"))
}

// LiveDirFromEnv returns LIVE_CONFIG_DIR or ./configs/live.
func LiveDirFromEnv() string {
	return dirFromEnv("LIVE_CONFIG_DIR", filepath.Join("configs", "live"))
}

func dirFromEnv(key, def string) string {
	dir := os.Getenv(key)
	if dir == "" {
		dir = def
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return dir
}
