package handler

import (
	"errors"
	"net/http"

	"github.com/blues/antugrow/internal/chain"
	"github.com/blues/antugrow/internal/funding"
	"github.com/blues/antugrow/internal/keyed"
	"github.com/blues/antugrow/internal/logger"
	"github.com/blues/antugrow/internal/logic"
	"github.com/blues/antugrow/internal/provider"
	"github.com/blues/antugrow/internal/repository"
	"github.com/gin-gonic/gin"
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// FailResponse 带数据的错误响应
func FailResponse(c *gin.Context, err error, data interface{}) {
	status := StatusOf(err)
	logRequestError(c, status, err)
	c.JSON(status, Response{
		Success: false,
		Message: err.Error(),
		Data:    data,
	})
}

// HandleError 按错误类型返回状态码
func HandleError(c *gin.Context, err error) {
	status := StatusOf(err)
	logRequestError(c, status, err)
	ErrorResponse(c, status, err.Error())
}

// StatusOf 业务错误到 HTTP 状态码
func StatusOf(err error) int {
	var statusErr *provider.StatusError
	switch {
	case errors.Is(err, logic.ErrNoProfile):
		return http.StatusUnauthorized
	case errors.Is(err, logic.ErrMissingFields),
		errors.Is(err, logic.ErrTooFewPoints),
		errors.Is(err, logic.ErrInvalidStage),
		errors.Is(err, logic.ErrInvalidRange),
		errors.Is(err, funding.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, funding.ErrSelfInvestment):
		return http.StatusForbidden
	case errors.Is(err, logic.ErrFarmNotFound),
		errors.Is(err, funding.ErrCampaignNotFound),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, funding.ErrInvestmentInProgress),
		errors.Is(err, keyed.ErrSuperseded),
		errors.Is(err, logic.ErrNoFarmData):
		return http.StatusConflict
	case errors.Is(err, logic.ErrNoAnalysis),
		errors.Is(err, chain.ErrNoSigner),
		errors.Is(err, provider.ErrNoAPIKey):
		return http.StatusServiceUnavailable
	case errors.As(err, &statusErr),
		errors.Is(err, chain.ErrTxReverted):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func logRequestError(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		logger.Error("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		return
	}
	logger.Debug("%s %s rejected: %v", c.Request.Method, c.FullPath(), err)
}
