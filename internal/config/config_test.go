package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dca-backtest/internal/model"
	"dca-backtest/internal/strategy"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const baseYAML = `
symbol: BTCUSDT
market_type: futures
starting_balance: 1000
latency_simulation_ms: 250
maker_fee: -0.0001
`

func TestLoad_LiveConfigFileWithOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "live/v.yaml", `
config_type: vanilla
max_position: 5
bankruptcy_threshold: 0.2
vanilla:
  grid_spacing: 0.01
  max_entry_levels: 3
  initial_qty_pct: 0.05
  markup: 0.01
`)
	path := writeFile(t, dir, "bt.yaml", baseYAML+`
live_config_file: live/v.yaml
live_config:
  max_position: 7
  vanilla:
    markup: 0.02
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7.0, c.Live.MaxPosition)
	assert.Equal(t, 0.2, c.Live.BankruptcyThreshold)
	require.NotNil(t, c.Live.Vanilla)
	assert.Equal(t, 0.02, c.Live.Vanilla.Markup)
	assert.Equal(t, 0.01, c.Live.Vanilla.GridSpacing)

	p := c.ToModelParams()
	assert.Equal(t, 1000.0, p.StartingBalance)
	assert.Equal(t, int64(250), p.LatencyMS)
	assert.Equal(t, -0.0001, p.MakerFee)
	assert.True(t, p.DoLong)
	assert.False(t, p.DoShort)

	v, err := c.ToVariant()
	require.NoError(t, err)
	assert.Equal(t, strategy.TypeVanilla, v.Type)
	assert.Equal(t, 3, v.Vanilla.MaxEntryLevels)
}

func TestLoad_MissingRequiredKeys(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bt.yaml", `
symbol: BTCUSDT
maker_fee: 0
live_config:
  config_type: scalp
  max_position: 1
  scalp: {entry_spacing: 0.01, qty_pct: 0.01, min_markup: 0.01}
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "starting_balance")
	assert.Contains(t, err.Error(), "latency_simulation_ms")
	assert.NotContains(t, err.Error(), "maker_fee")
}

func TestLoad_ZeroStartingBalance(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bt.yaml", `
starting_balance: 0
latency_simulation_ms: 0
maker_fee: 0
live_config:
  max_position: 1
  scalp: {entry_spacing: 0.01, qty_pct: 0.01, min_markup: 0.01}
`)
	_, err := Load(path)
	assert.ErrorIs(t, err, model.ErrInvalidConfig)
}

func TestLoad_UnknownConfigType(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bt.yaml", baseYAML+`
live_config:
  config_type: recursive
  max_position: 1
`)
	_, err := Load(path)
	assert.ErrorIs(t, err, model.ErrUnknownConfigType)
	assert.ErrorIs(t, err, model.ErrInvalidConfig)
}

func TestDetermineConfigType(t *testing.T) {
	tests := []struct {
		name    string
		live    LiveConfig
		want    string
		wantErr bool
	}{
		{name: "explicit", live: LiveConfig{ConfigType: "scalp"}, want: strategy.TypeScalp},
		{name: "inferred vanilla", live: LiveConfig{Vanilla: &VanillaConfig{}}, want: strategy.TypeVanilla},
		{name: "inferred scalp", live: LiveConfig{Scalp: &ScalpConfig{}}, want: strategy.TypeScalp},
		{name: "ambiguous", live: LiveConfig{Vanilla: &VanillaConfig{}, Scalp: &ScalpConfig{}}, wantErr: true},
		{name: "empty", live: LiveConfig{}, wantErr: true},
		{name: "unknown", live: LiveConfig{ConfigType: "neat"}, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetermineConfigType(tt.live)
			if tt.wantErr {
				assert.ErrorIs(t, err, model.ErrUnknownConfigType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSpotify(t *testing.T) {
	on := true
	c := &Config{MarketType: "Spot", Live: LiveConfig{DoShort: &on}}
	Spotify(c)
	assert.True(t, c.Live.Spot)
	require.NotNil(t, c.Live.DoShort)
	assert.False(t, *c.Live.DoShort)
	assert.True(t, c.ToModelParams().Spot)

	f := &Config{MarketType: "futures", Live: LiveConfig{DoShort: &on}}
	Spotify(f)
	assert.False(t, f.Live.Spot)
	assert.True(t, *f.Live.DoShort)
}

func TestMergeLive(t *testing.T) {
	off := false
	base := LiveConfig{
		ConfigType:  "scalp",
		MaxPosition: 2,
		Scalp:       &ScalpConfig{EntrySpacing: 0.01, QtyPct: 0.1},
	}
	out := MergeLive(base, LiveConfig{DoLong: &off, Scalp: &ScalpConfig{QtyPct: 0.2}})

	assert.Equal(t, "scalp", out.ConfigType)
	assert.Equal(t, 2.0, out.MaxPosition)
	assert.False(t, *out.DoLong)
	assert.Equal(t, 0.01, out.Scalp.EntrySpacing)
	assert.Equal(t, 0.2, out.Scalp.QtyPct)
	assert.Equal(t, 0.1, base.Scalp.QtyPct, "base is not modified")
}

func TestLoadPresetFiles(t *testing.T) {
	for _, name := range []string{"vanilla_default.yaml", "scalp_default.yaml"} {
		l, err := LoadLive(filepath.Join("..", "..", "configs", "live", name))
		require.NoError(t, err, name)
		_, err = DetermineConfigType(l)
		assert.NoError(t, err, name)
	}
}
