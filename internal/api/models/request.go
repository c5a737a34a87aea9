package models

import (
	"dca-backtest/internal/config"
	"dca-backtest/internal/model"
)

// BacktestRequest represents the request body for running a backtest
type BacktestRequest struct {
	DataSource DataSourceConfig `json:"data_source" binding:"required"`
	Config     config.Config    `json:"config" binding:"required"`
	Options    BacktestOptions  `json:"options,omitempty"`
}

// DataSourceConfig defines where the ticks come from
type DataSourceConfig struct {
	Type string `json:"type" binding:"required,oneof=file inline"`
	// TickFile is a file name inside TICK_DIR (type "file").
	TickFile string `json:"tick_file,omitempty"`
	// Ticks are [timestamp_ms, qty, price] triples (type "inline").
	Ticks []model.Tick `json:"ticks,omitempty"`
	// SampleMS overrides config.sample_ms when set.
	SampleMS int64 `json:"sample_ms,omitempty"`
}

// BacktestOptions contains optional backtest parameters
type BacktestOptions struct {
	LimitTicks   int  `json:"limit_ticks,omitempty"`   // 0 = all
	IncludeFills bool `json:"include_fills,omitempty"` // default: false
}

// CompareBacktestRequest runs several variations over the same ticks
type CompareBacktestRequest struct {
	DataSource DataSourceConfig    `json:"data_source" binding:"required"`
	BaseConfig config.Config       `json:"base_config" binding:"required"`
	Variations []BacktestVariation `json:"variations" binding:"required,min=1,dive"`
	Options    BacktestOptions     `json:"options,omitempty"`
}

// BacktestVariation overrides parts of the base config
type BacktestVariation struct {
	Name                string            `json:"name" binding:"required"`
	StartingBalance     *float64          `json:"starting_balance,omitempty"`
	LatencySimulationMS *int64            `json:"latency_simulation_ms,omitempty"`
	MakerFee            *float64          `json:"maker_fee,omitempty"`
	LiveConfigFile      string            `json:"live_config_file,omitempty"`
	LiveConfig          config.LiveConfig `json:"live_config"`
}
