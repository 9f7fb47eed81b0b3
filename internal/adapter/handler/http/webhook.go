package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/teixeiranog/rifastatus/internal/core/port"
	"go.uber.org/zap"
)

// WebhookHandler receives payment processor callbacks over plain HTTP, for
// processors that push directly instead of going through the broker queue.
type WebhookHandler struct {
	confirmer port.PaymentConfirmer
	logger    *zap.Logger
}

func NewWebhookHandler(confirmer port.PaymentConfirmer, logger *zap.Logger) (*WebhookHandler, error) {
	return &WebhookHandler{confirmer: confirmer, logger: logger}, nil
}

type ConfirmRequest struct {
	OrderID uint64 `json:"order_id" binding:"required"`
}

func (wh *WebhookHandler) ConfirmPayment(ctx *gin.Context) {
	req := ConfirmRequest{}
	if err := ctx.ShouldBindBodyWithJSON(&req); err != nil {
		handleValidationError(ctx, err)
		return
	}

	if err := wh.confirmer.ConfirmPayment(ctx, req.OrderID); err != nil {
		handleError(ctx, err)
		return
	}

	handleSuccessWithStatus(ctx, nil, http.StatusNoContent)
}
