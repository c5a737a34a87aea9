package analysis

import (
	"math"

	"github.com/shopspring/decimal"

	"dca-backtest/internal/backtest"
	"dca-backtest/internal/model"
)

const msPerDay = 1000 * 60 * 60 * 24

// Report summarizes one backtest for printing and ranking.
type Report struct {
	NDays float64 `json:"n_days"`

	StartingBalance float64 `json:"starting_balance"`
	FinalBalance    float64 `json:"final_balance"`
	FinalEquity     float64 `json:"final_equity"`

	// Gain is final balance over starting balance.
	Gain             float64 `json:"gain"`
	AverageDailyGain float64 `json:"average_daily_gain"`

	NFills        int `json:"n_fills"`
	NEntries      int `json:"n_entries"`
	NCloses       int `json:"n_closes"`
	NLiquidations int `json:"n_liquidations"`

	FeeSum    float64 `json:"fee_sum"`
	PNLSum    float64 `json:"pnl_sum"`
	ProfitSum float64 `json:"profit_sum"`
	LossSum   float64 `json:"loss_sum"`

	MaxHoursNoFills float64 `json:"max_hours_no_fills"`

	LowestEquityRatio float64 `json:"lowest_equity_ratio"`
	ClosestBankruptcy float64 `json:"closest_bankruptcy"`
	Completed         bool    `json:"completed"`
}

// NDays is the span between two millisecond timestamps in days, rounded to
// one decimal.
func NDays(startTS, endTS int64) float64 {
	d := decimal.NewFromInt(endTS - startTS).Div(decimal.NewFromInt(msPerDay))
	return d.Round(1).InexactFloat64()
}

// AnalyzeFills builds a Report from a fill ledger. startTS and endTS are the
// first and last timestamps of the replayed tick stream.
func AnalyzeFills(fills []backtest.Fill, info backtest.Info, startingBalance float64, startTS, endTS int64) Report {
	r := Report{
		NDays:             NDays(startTS, endTS),
		StartingBalance:   startingBalance,
		FinalBalance:      startingBalance,
		FinalEquity:       startingBalance,
		LowestEquityRatio: info.LowestEquityRatio,
		ClosestBankruptcy: info.ClosestBankruptcy,
		Completed:         info.Completed,
		NFills:            len(fills),
	}

	prev := startTS
	var maxGap int64
	for _, f := range fills {
		switch f.Kind {
		case model.KindEntry:
			r.NEntries++
		case model.KindClose:
			r.NCloses++
		case model.KindLiquidation:
			r.NLiquidations++
		}
		r.FeeSum += f.FeePaid
		r.PNLSum += f.PNL
		if f.PNL > 0 {
			r.ProfitSum += f.PNL
		} else {
			r.LossSum += f.PNL
		}
		if gap := f.Timestamp - prev; gap > maxGap {
			maxGap = gap
		}
		prev = f.Timestamp
	}
	if gap := endTS - prev; gap > maxGap {
		maxGap = gap
	}
	r.MaxHoursNoFills = float64(maxGap) / (1000 * 60 * 60)

	if n := len(fills); n > 0 {
		r.FinalBalance = fills[n-1].BalanceAfter
		r.FinalEquity = fills[n-1].EquityAfter
	}
	r.setGain()
	return r
}

func (r *Report) setGain() {
	r.Gain, r.AverageDailyGain = 0, 0
	if r.StartingBalance > 0 {
		r.Gain = r.FinalBalance / r.StartingBalance
	}
	if r.NDays > 0 && r.Gain > 0 {
		r.AverageDailyGain = math.Pow(r.Gain, 1/r.NDays)
	}
}

// Analyze builds a Report from an engine result.
func Analyze(res *backtest.Result) Report {
	r := AnalyzeFills(res.Fills, res.Info, res.Account.StartingBalance,
		res.Stats.FirstTimestamp, res.Stats.LastTimestamp)
	r.FinalBalance = res.Account.Balance
	r.FinalEquity = res.Account.Equity
	r.setGain()
	return r
}
