package service

import (
	"context"

	"github.com/govalues/decimal"
	"github.com/teixeiranog/rifastatus/internal/core/domain"
	"go.uber.org/zap"
)

// RecomputeStats rebuilds the raffle counters from the full set of paid
// orders. Always a full scan of the source of truth, never an increment, so
// concurrent or redundant runs cannot drift.
func (s *Service) RecomputeStats(ctx context.Context, raffleID uint64) (*domain.Raffle, error) {
	paid, err := s.repo.ListOrdersByStatus(ctx, raffleID,
		[]domain.OrderStatus{domain.OrderStatusPaid})
	if err != nil {
		s.logger.Error("List paid orders", zap.Uint64("raffle", raffleID), zap.Error(err))
		return nil, err
	}

	sold := 0
	revenue := decimal.Zero
	buyers := make(map[uint64]struct{})
	for _, order := range paid {
		sold += order.RequestedQuantity
		revenue, err = revenue.Add(order.TotalAmount)
		if err != nil {
			s.logger.Error("Revenue sum", zap.Error(err))
			return nil, domain.ErrInternal
		}
		buyers[order.BuyerID] = struct{}{}
	}

	stats := domain.RaffleStats{
		SoldCount:        sold,
		RevenueTotal:     revenue,
		ParticipantCount: len(buyers),
	}

	if err := s.repo.UpdateRaffleStats(ctx, raffleID, stats); err != nil {
		s.logger.Error("Write raffle stats", zap.Uint64("raffle", raffleID), zap.Error(err))
		return nil, err
	}

	return s.GetRaffle(ctx, raffleID)
}
