package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dca-backtest/internal/analysis"
	"dca-backtest/internal/backtest"
	"dca-backtest/internal/config"
	"dca-backtest/internal/data"
	"dca-backtest/internal/model"
	"dca-backtest/internal/strategy"
	"dca-backtest/internal/sweep"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var logger *zap.Logger

func main() {
	app := cli.NewApp()
	app.Name = "dca-backtest"
	app.Usage = "replay recorded trades against grid/DCA strategy configs"
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "human readable debug logging",
		},
	}
	app.Before = func(c *cli.Context) error {
		var err error
		if c.Bool("verbose") {
			logger, err = zap.NewDevelopment()
		} else {
			logger, err = zap.NewProduction()
		}
		return err
	}
	app.After = func(c *cli.Context) error {
		if logger != nil {
			_ = logger.Sync()
		}
		return nil
	}
	app.Commands = []*cli.Command{
		backtestCommand,
		compareCommand,
		inspectCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var tickFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "ticks",
		Usage: "tick file (.csv or .json); defaults to tick_file from the config",
	},
	&cli.Int64Flag{
		Name:  "sample-ms",
		Usage: "bucket ticks into intervals of this many ms (overrides sample_ms)",
	},
	&cli.IntFlag{
		Name:  "n",
		Usage: "limit to the first N ticks (0 = all)",
	},
}

var backtestCommand = &cli.Command{
	Name:      "backtest",
	Usage:     "run one backtest and write fills.csv and report.json",
	ArgsUsage: "<config.yaml>",
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:  "live-config",
			Usage: "live config YAML; overrides live_config_file",
		},
		&cli.StringFlag{
			Name:  "out",
			Value: "results",
			Usage: "output directory; a timestamped subdirectory is created per run",
		},
	}, tickFlags...),
	Action: runBacktest,
}

var compareCommand = &cli.Command{
	Name:      "compare",
	Usage:     "run several live configs over the same ticks and rank them",
	ArgsUsage: "<config.yaml>",
	Flags: append([]cli.Flag{
		&cli.StringSliceFlag{
			Name:     "live-config",
			Usage:    "live config YAML, repeatable",
			Required: true,
		},
		&cli.IntFlag{
			Name:  "parallel",
			Usage: "max concurrent runs (0 = GOMAXPROCS)",
		},
	}, tickFlags...),
	Action: runCompare,
}

var inspectCommand = &cli.Command{
	Name:      "inspect",
	Usage:     "print tick stream statistics",
	ArgsUsage: "<ticks.csv|ticks.json>",
	Flags: []cli.Flag{
		&cli.Int64Flag{Name: "sample-ms", Usage: "bucket ticks before computing stats"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return cli.ShowSubcommandHelp(c)
		}
		ticks, err := data.LoadTicks(c.Args().First())
		if err != nil {
			return err
		}
		ticks = data.SampleTicks(ticks, c.Int64("sample-ms"))
		return printJSON(analysis.ComputeTickStats(ticks))
	},
}

func loadConfig(c *cli.Context, livePath string) (*config.Config, error) {
	if c.NArg() != 1 {
		return nil, fmt.Errorf("expected exactly one config path, got %d", c.NArg())
	}
	path := c.Args().First()
	cfg, err := config.LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if livePath != "" {
		live, err := config.LoadLive(livePath)
		if err != nil {
			return nil, err
		}
		cfg.LiveConfigFile = livePath
		cfg.Live = live
	}
	config.Spotify(cfg)
	if cfg.TickFile != "" && !filepath.IsAbs(cfg.TickFile) {
		cfg.TickFile = filepath.Join(filepath.Dir(path), cfg.TickFile)
	}
	return cfg, nil
}

// resolve validates cfg and returns the strategy variant it selects.
func resolve(cfg *config.Config) (strategy.Variant, error) {
	if err := cfg.Validate(); err != nil {
		return strategy.Variant{}, err
	}
	return cfg.ToVariant()
}

func loadTicks(c *cli.Context, cfg *config.Config) ([]model.Tick, error) {
	path := c.String("ticks")
	if path == "" {
		path = cfg.TickFile
	}
	if path == "" {
		return nil, fmt.Errorf("no tick file: set tick_file in the config or pass --ticks")
	}
	sampleMS := cfg.SampleMS
	if c.IsSet("sample-ms") {
		sampleMS = c.Int64("sample-ms")
	}
	ticks, err := data.LoadTicks(path)
	if err != nil {
		return nil, err
	}
	ticks = data.SampleTicks(ticks, sampleMS)
	if n := c.Int("n"); n > 0 && n < len(ticks) {
		ticks = ticks[:n]
	}
	return ticks, nil
}

// configFields are the keys echoed before a run.
func configFields(cfg *config.Config, configType string) []zap.Field {
	p := cfg.ToModelParams()
	return []zap.Field{
		zap.String("exchange", cfg.Exchange),
		zap.Bool("spot", p.Spot),
		zap.String("symbol", cfg.Symbol),
		zap.String("market_type", cfg.MarketType),
		zap.String("config_type", configType),
		zap.Float64("starting_balance", p.StartingBalance),
		zap.Int64("latency_simulation_ms", p.LatencyMS),
		zap.Float64("maker_fee", p.MakerFee),
	}
}

func runBacktest(c *cli.Context) error {
	cfg, err := loadConfig(c, c.String("live-config"))
	if err != nil {
		return err
	}
	variant, err := resolve(cfg)
	if err != nil {
		return err
	}
	logger.Info("backtest config", configFields(cfg, variant.Type)...)
	logger.Debug("live config", zap.Any("live_config", cfg.Live))

	ticks, err := loadTicks(c, cfg)
	if err != nil {
		return err
	}
	logger.Info("ticks loaded",
		zap.Int("count", len(ticks)),
		zap.Float64("n_days", analysis.NDays(ticks[0].Timestamp, ticks[len(ticks)-1].Timestamp)),
	)

	sts := time.Now()
	res, err := backtest.New().Run(ticks, cfg.ToModelParams(), variant)
	if err != nil {
		return err
	}
	logger.Info("backtest finished",
		zap.Duration("elapsed", time.Since(sts)),
		zap.Int("fills", len(res.Fills)),
		zap.Bool("bankrupt", res.Stats.Bankrupt),
		zap.String("stop_reason", res.Stats.StopReason),
	)
	if len(res.Fills) == 0 {
		logger.Warn("no fills")
		return nil
	}

	report := analysis.Analyze(res)
	dir := filepath.Join(c.String("out"), time.Now().UTC().Format("2006-01-02T150405"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	fillsPath := filepath.Join(dir, "fills.csv")
	if err := backtest.WriteFillsCSV(fillsPath, res.Fills); err != nil {
		return err
	}
	reportPath := filepath.Join(dir, "report.json")
	if err := writeJSON(reportPath, map[string]any{
		"config": cfg,
		"result": report,
		"stats":  res.Stats,
	}); err != nil {
		return err
	}

	logger.Info("results written",
		zap.String("fills", fillsPath),
		zap.String("report", reportPath),
		zap.Float64("gain", report.Gain),
		zap.Float64("average_daily_gain", report.AverageDailyGain),
		zap.Float64("lowest_equity_ratio", report.LowestEquityRatio),
		zap.Float64("closest_bankruptcy", report.ClosestBankruptcy),
	)
	return nil
}

func runCompare(c *cli.Context) error {
	livePaths := c.StringSlice("live-config")
	cfg, err := loadConfig(c, livePaths[0])
	if err != nil {
		return err
	}
	if _, err := resolve(cfg); err != nil {
		return err
	}
	ticks, err := loadTicks(c, cfg)
	if err != nil {
		return err
	}

	jobs := make([]sweep.Job, 0, len(livePaths))
	for _, lp := range livePaths {
		live, err := config.LoadLive(lp)
		if err != nil {
			return err
		}
		run := *cfg
		run.Live = live
		config.Spotify(&run)
		variant, err := resolve(&run)
		if err != nil {
			return fmt.Errorf("%s: %w", lp, err)
		}
		jobs = append(jobs, sweep.Job{Name: lp, Ticks: ticks, Params: run.ToModelParams(), Variant: variant})
	}

	outcomes, err := sweep.Run(c.Context, jobs, c.Int("parallel"))
	if err != nil {
		return err
	}
	for _, o := range outcomes {
		if o.Err != nil {
			logger.Warn("run failed", zap.String("live_config", o.Name), zap.Error(o.Err))
		}
	}

	ranked := sweep.Rank(outcomes)
	fmt.Printf("%-4s %-40s %-8s %-10s %-10s %-10s %-10s\n", "rank", "live config", "fills", "gain", "adg", "low eq/bal", "closest bkr")
	for _, r := range ranked {
		fmt.Printf("%-4d %-40s %-8d %-10.4f %-10.6f %-10.4f %-10.4f\n",
			r.Rank, r.Name, r.NFills, r.Gain, r.AverageDailyGain, r.LowestEquityRatio, r.ClosestBankruptcy)
	}
	return nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
