package backtest

import "dca-backtest/internal/model"

// Info carries the bankruptcy extrema of a run. Its shape is fixed:
// (completed, lowest equity/balance ratio, closest bankruptcy distance).
type Info struct {
	Completed         bool
	LowestEquityRatio float64
	ClosestBankruptcy float64
}

func (i Info) Tuple() [3]float64 {
	done := 0.0
	if i.Completed {
		done = 1
	}
	return [3]float64{done, i.LowestEquityRatio, i.ClosestBankruptcy}
}

// Stop reasons.
const (
	StopNone       = ""
	StopCloseAll   = "forced close-all"
	StopBankruptcy = "balance exhausted"
)

// Stats is engine-side summary state for the result summarizer.
type Stats struct {
	Ticks          int   `json:"ticks"`
	ProcessedTicks int   `json:"processed_ticks"`
	FirstTimestamp int64 `json:"first_timestamp"`
	LastTimestamp  int64 `json:"last_timestamp"`

	Entries      int `json:"entries"`
	Closes       int `json:"closes"`
	Liquidations int `json:"liquidations"`

	OrdersPlaced    int `json:"orders_placed"`
	OrdersCancelled int `json:"orders_cancelled"`
	RejectedFills   int `json:"rejected_fills"`

	FeesPaid    float64 `json:"fees_paid"`
	RealizedPNL float64 `json:"realized_pnl"`

	FinalBalance       float64 `json:"final_balance"`
	FinalEquity        float64 `json:"final_equity"`
	FinalPosition      float64 `json:"final_position"`
	FinalPositionPrice float64 `json:"final_position_price"`
	MaxAbsPosition     float64 `json:"max_abs_position"`

	Bankrupt   bool   `json:"bankrupt"`
	StopReason string `json:"stop_reason"`
	StoppedAt  int64  `json:"stopped_at"`
}

type Result struct {
	Fills   []Fill
	Info    Info
	Stats   Stats
	Account model.Account
}
