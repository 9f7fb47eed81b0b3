package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/teixeiranog/rifastatus/internal/core/domain"
)

var errorStatusMap = map[error]int{
	domain.ErrInternal:        http.StatusInternalServerError,
	domain.ErrDataNotFound:    http.StatusNotFound,
	domain.ErrConflictingData: http.StatusConflict,
	domain.ErrTransient:       http.StatusServiceUnavailable,

	domain.ErrInvalidCredentials:         http.StatusUnauthorized,
	domain.ErrEmptyAuthorizationHeader:   http.StatusUnauthorized,
	domain.ErrInvalidAuthorizationHeader: http.StatusUnauthorized,
	domain.ErrInvalidAuthorizationType:   http.StatusUnauthorized,
	domain.ErrInvalidToken:               http.StatusUnauthorized,
	domain.ErrExpiredToken:               http.StatusUnauthorized,
	domain.ErrForbidden:                  http.StatusForbidden,

	domain.ErrBadRequest:  http.StatusBadRequest,
	domain.ErrBadQuantity: http.StatusBadRequest,

	domain.ErrRaffleNotFound:      http.StatusNotFound,
	domain.ErrRaffleNotActive:     http.StatusConflict,
	domain.ErrOrderNotFound:       http.StatusNotFound,
	domain.ErrOrderFinalized:      http.StatusConflict,
	domain.ErrInsufficientNumbers: http.StatusUnprocessableEntity,
	domain.ErrPaymentGateway:      http.StatusBadGateway,
	domain.ErrSettlementTimeout:   http.StatusRequestTimeout,
}

// statusFromError resolves wrapped errors too, so typed failures like the
// insufficient-inventory error still map to their sentinel's status.
func statusFromError(err error) int {
	if code, ok := errorStatusMap[err]; ok {
		return code
	}
	for sentinel, code := range errorStatusMap {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return http.StatusInternalServerError
}

// handleValidationError sends an error response for some specific request validation error
func handleValidationError(ctx *gin.Context, err error) {
	ctx.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrBadRequest.Error()})
}

// handleAbort sends an error response and aborts the request with the specified status code and error message
func handleAbort(ctx *gin.Context, err error) {
	ctx.AbortWithStatusJSON(statusFromError(err), gin.H{"error": err.Error()})
}

func handleError(ctx *gin.Context, err error) {
	ctx.JSON(statusFromError(err), gin.H{"error": err.Error()})
}

// handleSuccess sends a success response with the specified status code and optional data
func handleSuccessWithStatus(ctx *gin.Context, data any, status int) {
	if data != nil {
		ctx.JSON(status, data)
	} else {
		ctx.Status(status)
	}
}

func handleSuccess(ctx *gin.Context, data any) {
	handleSuccessWithStatus(ctx, data, http.StatusOK)
}
