package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dca-backtest/internal/model"
	"dca-backtest/internal/strategy"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk backtest configuration (YAML). The same shape is
// accepted as JSON by the API.
type Config struct {
	Symbol     string `yaml:"symbol" json:"symbol"`
	Exchange   string `yaml:"exchange" json:"exchange"`
	MarketType string `yaml:"market_type" json:"market_type"`

	// Required. Pointers so that a missing key is not mistaken for zero.
	StartingBalance     *float64 `yaml:"starting_balance" json:"starting_balance"`
	LatencySimulationMS *int64   `yaml:"latency_simulation_ms" json:"latency_simulation_ms"`
	MakerFee            *float64 `yaml:"maker_fee" json:"maker_fee"`

	// Exchange constraints. Zero disables the constraint.
	QtyStep   float64 `yaml:"qty_step" json:"qty_step"`
	PriceStep float64 `yaml:"price_step" json:"price_step"`
	MinQty    float64 `yaml:"min_qty" json:"min_qty"`
	MinCost   float64 `yaml:"min_cost" json:"min_cost"`

	TickFile string `yaml:"tick_file" json:"tick_file,omitempty"`
	// SampleMS buckets ticks into fixed intervals before the run. 0 keeps raw ticks.
	SampleMS int64 `yaml:"sample_ms" json:"sample_ms,omitempty"`

	// Optional: load the live config from a separate YAML (e.g. configs/live/*.yaml).
	// If both LiveConfigFile and Live are provided, Live overrides LiveConfigFile.
	LiveConfigFile string     `yaml:"live_config_file" json:"live_config_file,omitempty"`
	Live           LiveConfig `yaml:"live_config" json:"live_config"`
}

// LiveConfig selects the strategy variant and its risk settings.
type LiveConfig struct {
	ConfigType string `yaml:"config_type" json:"config_type"`

	DoLong  *bool `yaml:"do_long" json:"do_long,omitempty"`
	DoShort *bool `yaml:"do_short" json:"do_short,omitempty"`
	Spot    bool  `yaml:"spot" json:"spot"`

	MaxPosition         float64 `yaml:"max_position" json:"max_position"`
	BankruptcyThreshold float64 `yaml:"bankruptcy_threshold" json:"bankruptcy_threshold"`

	Vanilla *VanillaConfig `yaml:"vanilla" json:"vanilla,omitempty"`
	Scalp   *ScalpConfig   `yaml:"scalp" json:"scalp,omitempty"`
}

type VanillaConfig struct {
	GridSpacing    float64 `yaml:"grid_spacing" json:"grid_spacing"`
	SpacingMode    string  `yaml:"spacing_mode" json:"spacing_mode,omitempty"`
	MaxEntryLevels int     `yaml:"max_entry_levels" json:"max_entry_levels"`
	InitialQtyPct  float64 `yaml:"initial_qty_pct" json:"initial_qty_pct"`
	QtyMultiplier  float64 `yaml:"qty_multiplier" json:"qty_multiplier,omitempty"`
	Markup         float64 `yaml:"markup" json:"markup"`
}

type ScalpConfig struct {
	EntrySpacing  float64 `yaml:"entry_spacing" json:"entry_spacing"`
	SpacingWeight float64 `yaml:"spacing_weight" json:"spacing_weight"`
	QtyPct        float64 `yaml:"qty_pct" json:"qty_pct"`
	MinMarkup     float64 `yaml:"min_markup" json:"min_markup"`
	MarkupRange   float64 `yaml:"markup_range" json:"markup_range"`
	NCloseOrders  int     `yaml:"n_close_orders" json:"n_close_orders"`
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	Spotify(c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrInvalidConfig, path, err)
	}
	if c.LiveConfigFile != "" {
		livePath := c.LiveConfigFile
		if !filepath.IsAbs(livePath) {
			// relative to the config file first, then to cwd
			cand := filepath.Join(filepath.Dir(path), livePath)
			if _, err := os.Stat(cand); err == nil {
				livePath = cand
			}
		}
		loaded, err := LoadLive(livePath)
		if err != nil {
			return nil, err
		}
		c.Live = MergeLive(loaded, c.Live)
	}
	return &c, nil
}

// LoadLive reads a standalone live config. The file holds the live config
// keys at top level.
func LoadLive(path string) (LiveConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return LiveConfig{}, err
	}
	var l LiveConfig
	if err := yaml.Unmarshal(raw, &l); err != nil {
		return LiveConfig{}, fmt.Errorf("%w: %s: %v", model.ErrInvalidConfig, path, err)
	}
	return l, nil
}

func (c *Config) Validate() error {
	if c == nil {
		return model.ConfigError("config is nil")
	}
	var missing []string
	if c.StartingBalance == nil {
		missing = append(missing, "starting_balance")
	}
	if c.LatencySimulationMS == nil {
		missing = append(missing, "latency_simulation_ms")
	}
	if c.MakerFee == nil {
		missing = append(missing, "maker_fee")
	}
	if len(missing) > 0 {
		return model.ConfigError("missing required keys: %s", strings.Join(missing, ", "))
	}
	if c.SampleMS < 0 {
		return model.ConfigError("sample_ms must be >= 0, got %d", c.SampleMS)
	}
	if err := c.ToModelParams().Validate(); err != nil {
		return err
	}
	v, err := c.ToVariant()
	if err != nil {
		return err
	}
	if _, err := strategy.New(v); err != nil {
		return fmt.Errorf("live_config invalid: %w", err)
	}
	return nil
}

// IsSpot reports whether market_type names a spot market.
func (c *Config) IsSpot() bool {
	return strings.Contains(strings.ToLower(c.MarketType), "spot")
}

// Spotify adapts the live config to a spot market: no shorts, no leverage.
func Spotify(c *Config) {
	if !c.IsSpot() {
		return
	}
	c.Live.Spot = true
	off := false
	c.Live.DoShort = &off
}

// DetermineConfigType returns the strategy variant of a live config. An
// explicit config_type wins; otherwise it is inferred from the one strategy
// section present.
func DetermineConfigType(l LiveConfig) (string, error) {
	if l.ConfigType != "" {
		switch l.ConfigType {
		case strategy.TypeVanilla, strategy.TypeScalp:
			return l.ConfigType, nil
		}
		return "", fmt.Errorf("%w %q", model.ErrUnknownConfigType, l.ConfigType)
	}
	switch {
	case l.Vanilla != nil && l.Scalp == nil:
		return strategy.TypeVanilla, nil
	case l.Scalp != nil && l.Vanilla == nil:
		return strategy.TypeScalp, nil
	case l.Scalp != nil && l.Vanilla != nil:
		return "", fmt.Errorf("%w: both vanilla and scalp sections present", model.ErrUnknownConfigType)
	}
	return "", fmt.Errorf("%w: no config_type and no strategy section", model.ErrUnknownConfigType)
}

func (c *Config) ToModelParams() model.Params {
	p := model.Params{
		Spot:                c.Live.Spot || c.IsSpot(),
		DoLong:              boolOr(c.Live.DoLong, true),
		DoShort:             boolOr(c.Live.DoShort, false),
		QtyStep:             c.QtyStep,
		PriceStep:           c.PriceStep,
		MinQty:              c.MinQty,
		MinCost:             c.MinCost,
		MaxPosition:         c.Live.MaxPosition,
		BankruptcyThreshold: c.Live.BankruptcyThreshold,
	}
	if c.StartingBalance != nil {
		p.StartingBalance = *c.StartingBalance
	}
	if c.LatencySimulationMS != nil {
		p.LatencyMS = *c.LatencySimulationMS
	}
	if c.MakerFee != nil {
		p.MakerFee = *c.MakerFee
	}
	return p
}

// ToVariant resolves the config type and copies the matching section.
func (c *Config) ToVariant() (strategy.Variant, error) {
	typ, err := DetermineConfigType(c.Live)
	if err != nil {
		return strategy.Variant{}, err
	}
	v := strategy.Variant{Type: typ}
	switch typ {
	case strategy.TypeVanilla:
		if c.Live.Vanilla == nil {
			return v, model.ConfigError("config_type vanilla requires a vanilla section")
		}
		s := c.Live.Vanilla
		v.Vanilla = strategy.VanillaParams{
			GridSpacing:    s.GridSpacing,
			SpacingMode:    strategy.SpacingMode(s.SpacingMode),
			MaxEntryLevels: s.MaxEntryLevels,
			InitialQtyPct:  s.InitialQtyPct,
			QtyMultiplier:  s.QtyMultiplier,
			Markup:         s.Markup,
		}
	case strategy.TypeScalp:
		if c.Live.Scalp == nil {
			return v, model.ConfigError("config_type scalp requires a scalp section")
		}
		s := c.Live.Scalp
		v.Scalp = strategy.ScalpParams{
			EntrySpacing:  s.EntrySpacing,
			SpacingWeight: s.SpacingWeight,
			QtyPct:        s.QtyPct,
			MinMarkup:     s.MinMarkup,
			MarkupRange:   s.MarkupRange,
			NCloseOrders:  s.NCloseOrders,
		}
	}
	return v, nil
}

// MergeLive overlays non-zero fields from override onto base.
// This is used when loading a live config file and then applying overrides
// from the backtest config or an API request.
func MergeLive(base, override LiveConfig) LiveConfig {
	out := base
	if override.ConfigType != "" {
		out.ConfigType = override.ConfigType
	}
	if override.DoLong != nil {
		out.DoLong = override.DoLong
	}
	if override.DoShort != nil {
		out.DoShort = override.DoShort
	}
	if override.Spot {
		out.Spot = true
	}
	if override.MaxPosition != 0 {
		out.MaxPosition = override.MaxPosition
	}
	if override.BankruptcyThreshold != 0 {
		out.BankruptcyThreshold = override.BankruptcyThreshold
	}
	if override.Vanilla != nil {
		out.Vanilla = mergeVanilla(base.Vanilla, *override.Vanilla)
	}
	if override.Scalp != nil {
		out.Scalp = mergeScalp(base.Scalp, *override.Scalp)
	}
	return out
}

func mergeVanilla(base *VanillaConfig, o VanillaConfig) *VanillaConfig {
	var out VanillaConfig
	if base != nil {
		out = *base
	}
	if o.GridSpacing != 0 {
		out.GridSpacing = o.GridSpacing
	}
	if o.SpacingMode != "" {
		out.SpacingMode = o.SpacingMode
	}
	if o.MaxEntryLevels != 0 {
		out.MaxEntryLevels = o.MaxEntryLevels
	}
	if o.InitialQtyPct != 0 {
		out.InitialQtyPct = o.InitialQtyPct
	}
	if o.QtyMultiplier != 0 {
		out.QtyMultiplier = o.QtyMultiplier
	}
	if o.Markup != 0 {
		out.Markup = o.Markup
	}
	return &out
}

func mergeScalp(base *ScalpConfig, o ScalpConfig) *ScalpConfig {
	var out ScalpConfig
	if base != nil {
		out = *base
	}
	if o.EntrySpacing != 0 {
		out.EntrySpacing = o.EntrySpacing
	}
	if o.SpacingWeight != 0 {
		out.SpacingWeight = o.SpacingWeight
	}
	if o.QtyPct != 0 {
		out.QtyPct = o.QtyPct
	}
	if o.MinMarkup != 0 {
		out.MinMarkup = o.MinMarkup
	}
	if o.MarkupRange != 0 {
		out.MarkupRange = o.MarkupRange
	}
	if o.NCloseOrders != 0 {
		out.NCloseOrders = o.NCloseOrders
	}
	return &out
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
