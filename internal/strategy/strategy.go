package strategy

import (
	"fmt"

	"dca-backtest/internal/model"
)

// Config types accepted in the live config's config_type field.
const (
	TypeVanilla = "vanilla"
	TypeScalp   = "scalp"
)

// Context is the read-only view handed to a policy on every tick.
// Account is a copy; Working lists orders that are live or on their way to
// the market and not already being cancelled.
type Context struct {
	Index   int
	Tick    model.Tick
	Params  model.Params
	Account model.Account
	Working []model.Order

	// Anchor is the price the flat-state entries are laid out from; 0 until
	// a policy first asks for one with ActionReanchor.
	Anchor float64

	// Entry fills of the current position cycle.
	LastEntryPrice float64
	EntryLevels    int
}

type ActionType int

const (
	ActionPlace ActionType = iota
	ActionCancel
	ActionCloseAll
	// ActionReanchor moves the flat-state entry anchor to the current price.
	ActionReanchor
)

func (t ActionType) String() string {
	switch t {
	case ActionPlace:
		return "place"
	case ActionCancel:
		return "cancel"
	case ActionCloseAll:
		return "close_all"
	case ActionReanchor:
		return "reanchor"
	default:
		return fmt.Sprintf("action(%d)", int(t))
	}
}

// Action is an intent returned by a policy. The engine applies it through
// the latency queue.
type Action struct {
	Type  ActionType
	Order model.Order
}

// Policy decides order placement and cancellation. Implementations must not
// keep per-run state: the same policy value can serve concurrent runs.
type Policy interface {
	Name() string
	// Decide appends the actions for ctx to dst and returns it.
	Decide(ctx Context, dst []Action) []Action
}

// Variant selects a policy by config type together with its parameters.
type Variant struct {
	Type    string
	Vanilla VanillaParams
	Scalp   ScalpParams
}

// New resolves a variant. Unknown types fail with model.ErrUnknownConfigType.
func New(v Variant) (Policy, error) {
	switch v.Type {
	case TypeVanilla:
		return NewVanilla(v.Vanilla)
	case TypeScalp:
		return NewScalp(v.Scalp)
	default:
		return nil, fmt.Errorf("%w %q", model.ErrUnknownConfigType, v.Type)
	}
}
