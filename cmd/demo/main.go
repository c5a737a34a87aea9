package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	"dca-backtest/internal/analysis"
	"dca-backtest/internal/backtest"
	"dca-backtest/internal/config"
	"dca-backtest/internal/data"
	"dca-backtest/internal/model"
	"dca-backtest/internal/strategy"
)

// Demo:
// - Generate a reproducible synthetic tick stream (or load one with --ticks)
// - Run the vanilla and scalp variants over it with the same account settings
// - Print a short report per variant to show how the pieces fit together
func main() {
	ticksPath := flag.String("ticks", "", "Optional tick file (.csv or .json); synthetic ticks when empty")
	cfgPath := flag.String("config", "", "Optional backtest YAML; replaces the built-in variants with its live config")
	n := flag.Int("n", 20000, "Number of synthetic ticks")
	seed := flag.Int64("seed", 1, "Synthetic tick seed")
	outDir := flag.String("out", "", "Optional directory to write <variant>_fills.csv")
	flag.Parse()

	var ticks []model.Tick
	if *ticksPath != "" {
		loaded, err := data.LoadTicks(*ticksPath)
		if err != nil {
			panic(err)
		}
		ticks = loaded
	} else {
		ticks = syntheticTicks(*n, *seed)
	}

	params := model.Params{
		StartingBalance:     1000,
		LatencyMS:           1000,
		MakerFee:            -0.00025,
		DoLong:              true,
		QtyStep:             0.001,
		PriceStep:           0.01,
		MinQty:              0.001,
		MinCost:             5,
		MaxPosition:         50,
		BankruptcyThreshold: 0.2,
	}
	variants := []strategy.Variant{
		{
			Type: strategy.TypeVanilla,
			Vanilla: strategy.VanillaParams{
				GridSpacing:    0.004,
				MaxEntryLevels: 6,
				InitialQtyPct:  0.05,
				QtyMultiplier:  1.4,
				Markup:         0.003,
			},
		},
		{
			Type: strategy.TypeScalp,
			Scalp: strategy.ScalpParams{
				EntrySpacing:  0.003,
				SpacingWeight: 0.5,
				QtyPct:        0.05,
				MinMarkup:     0.002,
				MarkupRange:   0.004,
				NCloseOrders:  3,
			},
		},
	}

	if *cfgPath != "" {
		cfg, err := config.Load(*cfgPath)
		if err != nil {
			panic(err)
		}
		v, err := cfg.ToVariant()
		if err != nil {
			panic(err)
		}
		params = cfg.ToModelParams()
		variants = []strategy.Variant{v}
	}

	fmt.Printf("ticks=%d n_days=%.1f starting_balance=%.2f latency_ms=%d maker_fee=%g\n",
		len(ticks), analysis.NDays(ticks[0].Timestamp, ticks[len(ticks)-1].Timestamp),
		params.StartingBalance, params.LatencyMS, params.MakerFee)

	engine := backtest.New()
	for _, v := range variants {
		res, err := engine.Run(ticks, params, v)
		if err != nil {
			panic(err)
		}
		r := analysis.Analyze(res)
		fmt.Printf("\n[%s]\n", v.Type)
		fmt.Printf("  fills=%d entries=%d closes=%d liquidations=%d\n", r.NFills, r.NEntries, r.NCloses, r.NLiquidations)
		fmt.Printf("  final_balance=%.4f gain=%.6f adg=%.6f fees=%.4f\n", r.FinalBalance, r.Gain, r.AverageDailyGain, r.FeeSum)
		fmt.Printf("  info=%v stop=%q\n", res.Info.Tuple(), res.Stats.StopReason)

		if *outDir != "" {
			if err := os.MkdirAll(*outDir, 0o755); err != nil {
				panic(err)
			}
			path := filepath.Join(*outDir, v.Type+"_fills.csv")
			if err := backtest.WriteFillsCSV(path, res.Fills); err != nil {
				panic(err)
			}
			fmt.Printf("  wrote %s\n", path)
		}
	}
}

// syntheticTicks is a mean-reverting random walk around 100 with one trade
// every 250ms.
func syntheticTicks(n int, seed int64) []model.Tick {
	rng := rand.New(rand.NewSource(seed))
	ticks := make([]model.Tick, n)
	price := 100.0
	for i := range ticks {
		price += 0.02*(100-price) + rng.NormFloat64()*0.08
		price = math.Max(price, 1)
		ticks[i] = model.Tick{
			Timestamp: 1_600_000_000_000 + int64(i)*250,
			Qty:       math.Round(rng.ExpFloat64()*1000) / 1000,
			Price:     math.Round(price*100) / 100,
		}
	}
	return ticks
}
