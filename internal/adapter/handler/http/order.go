package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/govalues/decimal"
	"github.com/teixeiranog/rifastatus/internal/core/domain"
	"github.com/teixeiranog/rifastatus/internal/core/port"
	"go.uber.org/zap"
)

const maxAwaitTimeout = 60 * time.Second

type OrderHandler struct {
	service port.Service
	logger  *zap.Logger
}

func NewOrderHandler(service port.Service, logger *zap.Logger) (*OrderHandler, error) {
	return &OrderHandler{service: service, logger: logger}, nil
}

type ReserveRequest struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

type OrderResp struct {
	ID           uint64          `json:"id"`
	RaffleID     uint64          `json:"raffle_id"`
	Quantity     int             `json:"quantity"`
	Numbers      []int           `json:"numbers"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Status       string          `json:"status"`
	PaymentCode  *string         `json:"payment_code,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	ExpiresAt    time.Time       `json:"expires_at"`
}

func orderResp(o *domain.Order) OrderResp {
	return OrderResp{
		ID:          o.ID,
		RaffleID:    o.RaffleID,
		Quantity:    o.RequestedQuantity,
		Numbers:     o.NumberValues,
		TotalAmount: o.TotalAmount,
		Status:      string(o.Status),
		PaymentCode: o.PaymentCode,
		CreatedAt:   o.CreatedAt,
		ExpiresAt:   o.ExpiresAt,
	}
}

func (oh *OrderHandler) Reserve(ctx *gin.Context) {
	buyerID := getAuthPayload(ctx).UserID

	raffleID, err := strconv.ParseUint(ctx.Param("raffle"), 10, 64)
	if err != nil {
		handleValidationError(ctx, err)
		return
	}

	req := ReserveRequest{}
	if err := ctx.ShouldBindBodyWithJSON(&req); err != nil {
		handleValidationError(ctx, err)
		return
	}

	order, err := oh.service.Reserve(ctx, raffleID, req.Quantity, buyerID)
	if err != nil {
		handleError(ctx, err)
		return
	}

	handleSuccessWithStatus(ctx, orderResp(order), http.StatusCreated)
}

// ownOrder loads the order and rejects access by anyone but its buyer.
func (oh *OrderHandler) ownOrder(ctx *gin.Context) (*domain.Order, bool) {
	buyerID := getAuthPayload(ctx).UserID

	orderID, err := strconv.ParseUint(ctx.Param("order"), 10, 64)
	if err != nil {
		handleValidationError(ctx, err)
		return nil, false
	}

	order, err := oh.service.GetOrder(ctx, orderID)
	if err != nil {
		handleError(ctx, err)
		return nil, false
	}
	if order.BuyerID != buyerID {
		handleError(ctx, domain.ErrForbidden)
		return nil, false
	}
	return order, true
}

func (oh *OrderHandler) GetOrder(ctx *gin.Context) {
	order, ok := oh.ownOrder(ctx)
	if !ok {
		return
	}
	handleSuccess(ctx, orderResp(order))
}

func (oh *OrderHandler) ListOrdersByBuyer(ctx *gin.Context) {
	buyerID := getAuthPayload(ctx).UserID

	list, err := oh.service.OrdersByBuyer(ctx, buyerID)
	if err != nil {
		handleError(ctx, err)
		return
	}

	result := make([]OrderResp, 0, len(list))
	for _, o := range list {
		result = append(result, orderResp(o))
	}

	handleSuccess(ctx, result)
}

type ChargeResp struct {
	OrderID   uint64    `json:"order_id"`
	Reference string    `json:"reference"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (oh *OrderHandler) GenerateCharge(ctx *gin.Context) {
	order, ok := oh.ownOrder(ctx)
	if !ok {
		return
	}

	charge, err := oh.service.GenerateCharge(ctx, order.ID)
	if err != nil {
		handleError(ctx, err)
		return
	}

	handleSuccess(ctx, ChargeResp{
		OrderID:   charge.OrderID,
		Reference: charge.Reference,
		Code:      charge.Code,
		ExpiresAt: charge.ExpiresAt,
	})
}

func (oh *OrderHandler) Cancel(ctx *gin.Context) {
	order, ok := oh.ownOrder(ctx)
	if !ok {
		return
	}

	if err := oh.service.Cancel(ctx, order.ID); err != nil {
		handleError(ctx, err)
		return
	}

	handleSuccessWithStatus(ctx, nil, http.StatusNoContent)
}

// AwaitSettlement blocks the request until the order settles, is reclaimed,
// or the wait window runs out.
func (oh *OrderHandler) AwaitSettlement(ctx *gin.Context) {
	order, ok := oh.ownOrder(ctx)
	if !ok {
		return
	}

	timeout := 30 * time.Second
	if raw := ctx.Query("timeout"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			handleValidationError(ctx, err)
			return
		}
		timeout = min(parsed, maxAwaitTimeout)
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	status, err := oh.service.AwaitSettlement(waitCtx, order.ID)
	if err != nil {
		if err == domain.ErrSettlementTimeout {
			oh.logger.Debug("Settlement wait timed out", zap.Uint64("order", order.ID))
		}
		handleError(ctx, err)
		return
	}

	handleSuccess(ctx, struct {
		Status string `json:"status"`
	}{Status: string(status)})
}
