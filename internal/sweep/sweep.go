// Package sweep runs independent backtests in parallel. Every run owns its
// engine state; only the read-only tick slice is shared.
package sweep

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"dca-backtest/internal/analysis"
	"dca-backtest/internal/backtest"
	"dca-backtest/internal/model"
	"dca-backtest/internal/strategy"
)

type Job struct {
	Name    string
	Ticks   []model.Tick
	Params  model.Params
	Variant strategy.Variant
}

// Outcome is the result of one job. Err is set when the job's config or
// data was rejected; other jobs are unaffected.
type Outcome struct {
	Name   string
	Result *backtest.Result
	Report analysis.Report
	Err    error
}

// Run executes jobs with at most parallelism runs in flight (GOMAXPROCS when
// <= 0). Outcomes are returned in job order. The only error returned is the
// context's.
func Run(ctx context.Context, jobs []Job, parallelism int) ([]Outcome, error) {
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	out := make([]Outcome, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i := range jobs {
		i := i
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			job := jobs[i]
			o := Outcome{Name: job.Name}
			res, err := backtest.New().Run(job.Ticks, job.Params, job.Variant)
			if err != nil {
				o.Err = err
			} else {
				o.Result = res
				o.Report = analysis.Analyze(res)
			}
			out[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Rank orders the successful outcomes by gain.
func Rank(outcomes []Outcome) []analysis.RankedReport {
	names := make([]string, 0, len(outcomes))
	reports := make([]analysis.Report, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Err != nil {
			continue
		}
		names = append(names, o.Name)
		reports = append(reports, o.Report)
	}
	return analysis.RankByGain(names, reports)
}
