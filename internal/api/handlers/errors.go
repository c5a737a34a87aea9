package handlers

import (
	"errors"
	"net/http"

	"dca-backtest/internal/api/models"
	"dca-backtest/internal/model"

	"github.com/gin-gonic/gin"
)

// Error codes returned in models.ErrorDetail.Code.
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeInvalidConfig  = "INVALID_CONFIG"
	CodeInvalidData    = "INVALID_DATA"
	CodeBacktestError  = "BACKTEST_ERROR"
	CodeNotFound       = "NOT_FOUND"
)

// classify maps an error kind to its HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrInvalidConfig):
		return http.StatusBadRequest, CodeInvalidConfig
	case errors.Is(err, model.ErrInvalidData):
		return http.StatusUnprocessableEntity, CodeInvalidData
	default:
		return http.StatusInternalServerError, CodeBacktestError
	}
}

func errorDetail(err error) models.ErrorDetail {
	_, code := classify(err)
	return models.ErrorDetail{Code: code, Message: err.Error()}
}

func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

func writeErr(c *gin.Context, err error) {
	status, code := classify(err)
	writeError(c, status, code, err.Error())
}
