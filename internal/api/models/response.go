package models

import (
	"time"

	"dca-backtest/internal/analysis"
)

// BacktestResponse represents the response from a backtest run
type BacktestResponse struct {
	ID      string          `json:"id,omitempty"`
	Status  string          `json:"status"`
	Summary BacktestSummary `json:"summary"`
	Fills   []FillRow       `json:"fills,omitempty"`
}

// BacktestSummary contains aggregated backtest results
type BacktestSummary struct {
	Symbol         string     `json:"symbol,omitempty"`
	ConfigType     string     `json:"config_type"`
	Ticks          int        `json:"ticks"`
	ProcessedTicks int        `json:"processed_ticks"`
	BacktestWindow TimeWindow `json:"backtest_window"`

	// Info is (completed, lowest equity/balance ratio, closest bankruptcy).
	Info       [3]float64 `json:"info"`
	Bankrupt   bool       `json:"bankrupt"`
	StopReason string     `json:"stop_reason,omitempty"`

	OrdersPlaced    int     `json:"orders_placed"`
	OrdersCancelled int     `json:"orders_cancelled"`
	RejectedFills   int     `json:"rejected_fills"`
	MaxAbsPosition  float64 `json:"max_abs_position"`
	FinalPosition   float64 `json:"final_position"`

	Report analysis.Report `json:"report"`
}

// TimeWindow represents a time range
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// FillRow represents one executed order
type FillRow struct {
	Index         int     `json:"index"`
	TickIndex     int     `json:"tick_index"`
	Timestamp     int64   `json:"timestamp"`
	OrderID       uint64  `json:"order_id"`
	PlacedAt      int64   `json:"placed_at"`
	Side          string  `json:"side"` // "BUY", "SELL"
	Kind          string  `json:"kind"` // "ENTRY", "CLOSE", "LIQUIDATION"
	Level         int     `json:"level"`
	Price         float64 `json:"price"`
	Qty           float64 `json:"qty"`
	FeePaid       float64 `json:"fee_paid"`
	PNL           float64 `json:"pnl"`
	Balance       float64 `json:"balance"`
	PositionSize  float64 `json:"position_size"`
	PositionPrice float64 `json:"position_price"`
	Equity        float64 `json:"equity"`
}

// FillsResponse is returned by GET /api/v1/backtest/:id/fills
type FillsResponse struct {
	ID    string    `json:"id"`
	Count int       `json:"count"`
	Fills []FillRow `json:"fills"`
}

// CompareBacktestResponse represents the response from a comparison
type CompareBacktestResponse struct {
	Comparison []ComparisonResult `json:"comparison"`
}

// ComparisonResult contains results for one variation
type ComparisonResult struct {
	Rank    int              `json:"rank,omitempty"` // 0 for failed variations
	Name    string           `json:"name"`
	ID      string           `json:"id,omitempty"`
	Summary *BacktestSummary `json:"summary,omitempty"`
	Error   *ErrorDetail     `json:"error,omitempty"`
}

// LiveConfigInfo represents information about a live config preset
type LiveConfigInfo struct {
	ID                  string  `json:"id"`
	File                string  `json:"file"`
	ConfigType          string  `json:"config_type"`
	MaxPosition         float64 `json:"max_position"`
	BankruptcyThreshold float64 `json:"bankruptcy_threshold"`
	DoLong              bool    `json:"do_long"`
	DoShort             bool    `json:"do_short"`
}

// StrategyInfo represents information about a strategy
type StrategyInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// ParameterInfo describes a strategy parameter
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "float", "int", "string", "bool"
	Description string      `json:"description"`
	Default     interface{} `json:"default,omitempty"`
}

// DatasetInfo represents a tick file available in TICK_DIR
type DatasetInfo struct {
	ID         string              `json:"id"`
	File       string              `json:"file"`
	Format     string              `json:"format"`
	SizeBytes  int64               `json:"size_bytes"`
	ModifiedAt time.Time           `json:"modified_at"`
	Stats      *analysis.TickStats `json:"stats,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
