package handlers

import (
	"net/http"

	"dca-backtest/internal/api/models"
	"dca-backtest/internal/strategy"

	"github.com/gin-gonic/gin"
)

// StrategyHandler handles strategy-related requests
type StrategyHandler struct{}

// NewStrategyHandler creates a new strategy handler
func NewStrategyHandler() *StrategyHandler {
	return &StrategyHandler{}
}

var commonParameters = []models.ParameterInfo{
	{Name: "do_long", Type: "bool", Description: "Allow long positions", Default: true},
	{Name: "do_short", Type: "bool", Description: "Allow short positions (ignored on spot markets)", Default: false},
	{Name: "max_position", Type: "float", Description: "Upper bound on abs(position size) in base quantity"},
	{Name: "bankruptcy_threshold", Type: "float", Description: "Equity / starting balance ratio at or below which the position is force-closed", Default: 0.0},
}

// Catalog describes the strategy variants and their live config parameters.
func Catalog() []models.StrategyInfo {
	return []models.StrategyInfo{
		{
			Name:        strategy.TypeVanilla,
			Description: "Fixed entry ladder below (long) or above (short) the anchor price with a single take-profit close at the average entry price plus markup.",
			Parameters: append(append([]models.ParameterInfo{}, commonParameters...),
				models.ParameterInfo{Name: "grid_spacing", Type: "float", Description: "Distance between ladder levels as a fraction of price"},
				models.ParameterInfo{Name: "spacing_mode", Type: "string", Description: "geometric or arithmetic level spacing", Default: string(strategy.SpacingGeometric)},
				models.ParameterInfo{Name: "max_entry_levels", Type: "int", Description: "Number of ladder levels per position cycle"},
				models.ParameterInfo{Name: "initial_qty_pct", Type: "float", Description: "First level size as a fraction of balance"},
				models.ParameterInfo{Name: "qty_multiplier", Type: "float", Description: "Size multiplier applied per level", Default: 1.0},
				models.ParameterInfo{Name: "markup", Type: "float", Description: "Take-profit distance from the average entry price"},
			),
		},
		{
			Name:        strategy.TypeScalp,
			Description: "One trailing entry that widens with exposure, closed by several orders spread over a markup range.",
			Parameters: append(append([]models.ParameterInfo{}, commonParameters...),
				models.ParameterInfo{Name: "entry_spacing", Type: "float", Description: "Distance of the next entry from min(price, average entry price)"},
				models.ParameterInfo{Name: "spacing_weight", Type: "float", Description: "Spacing widening per unit of exposure", Default: 0.0},
				models.ParameterInfo{Name: "qty_pct", Type: "float", Description: "Entry size as a fraction of balance"},
				models.ParameterInfo{Name: "min_markup", Type: "float", Description: "Markup of the nearest close order"},
				models.ParameterInfo{Name: "markup_range", Type: "float", Description: "Markup span covered by the close orders", Default: 0.0},
				models.ParameterInfo{Name: "n_close_orders", Type: "int", Description: "Number of close orders", Default: 1},
			),
		},
	}
}

// ListStrategies handles GET /api/v1/strategies
func (h *StrategyHandler) ListStrategies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"strategies": Catalog()})
}
