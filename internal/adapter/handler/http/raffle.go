package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/govalues/decimal"
	"github.com/teixeiranog/rifastatus/internal/core/domain"
	"github.com/teixeiranog/rifastatus/internal/core/port"
	"go.uber.org/zap"
)

type RaffleHandler struct {
	service port.Service
	logger  *zap.Logger
}

func NewRaffleHandler(service port.Service, logger *zap.Logger) (*RaffleHandler, error) {
	return &RaffleHandler{service: service, logger: logger}, nil
}

type RaffleRequest struct {
	Title          string    `json:"title" binding:"required"`
	PricePerNumber string    `json:"price_per_number" binding:"required"`
	TotalNumbers   int       `json:"total_numbers" binding:"required,gt=0"`
	DrawAt         time.Time `json:"draw_at" binding:"required"`
}

type RaffleResp struct {
	ID               uint64          `json:"id"`
	Title            string          `json:"title"`
	PricePerNumber   decimal.Decimal `json:"price_per_number"`
	TotalNumbers     int             `json:"total_numbers"`
	SoldCount        int             `json:"sold_count"`
	RevenueTotal     decimal.Decimal `json:"revenue_total"`
	ParticipantCount int             `json:"participant_count"`
	Status           string          `json:"status"`
	DrawAt           time.Time       `json:"draw_at"`
	WinningNumber    *int            `json:"winning_number,omitempty"`
}

func raffleResp(r *domain.Raffle) RaffleResp {
	return RaffleResp{
		ID:               r.ID,
		Title:            r.Title,
		PricePerNumber:   r.PricePerNumber,
		TotalNumbers:     r.TotalNumbers,
		SoldCount:        r.SoldCount,
		RevenueTotal:     r.RevenueTotal,
		ParticipantCount: r.ParticipantCount,
		Status:           string(r.Status),
		DrawAt:           r.DrawAt,
		WinningNumber:    r.WinningNumber,
	}
}

func (rh *RaffleHandler) CreateRaffle(ctx *gin.Context) {
	req := RaffleRequest{}
	if err := ctx.ShouldBindBodyWithJSON(&req); err != nil {
		handleValidationError(ctx, err)
		return
	}

	price, err := decimal.Parse(req.PricePerNumber)
	if err != nil {
		handleValidationError(ctx, err)
		return
	}

	raffle := &domain.Raffle{
		Title:          req.Title,
		PricePerNumber: price,
		TotalNumbers:   req.TotalNumbers,
		DrawAt:         req.DrawAt,
	}

	newRaffle, err := rh.service.CreateRaffle(ctx, raffle)
	if err != nil {
		handleError(ctx, err)
		return
	}

	handleSuccessWithStatus(ctx, raffleResp(newRaffle), http.StatusCreated)
}

func (rh *RaffleHandler) GetRaffle(ctx *gin.Context) {
	raffleID, err := strconv.ParseUint(ctx.Param("raffle"), 10, 64)
	if err != nil {
		handleValidationError(ctx, err)
		return
	}

	raffle, err := rh.service.GetRaffle(ctx, raffleID)
	if err != nil {
		handleError(ctx, err)
		return
	}

	handleSuccess(ctx, raffleResp(raffle))
}

func (rh *RaffleHandler) AvailableCount(ctx *gin.Context) {
	raffleID, err := strconv.ParseUint(ctx.Param("raffle"), 10, 64)
	if err != nil {
		handleValidationError(ctx, err)
		return
	}

	count, err := rh.service.AvailableCount(ctx, raffleID)
	if err != nil {
		handleError(ctx, err)
		return
	}

	handleSuccess(ctx, struct {
		Available int `json:"available"`
	}{Available: count})
}
