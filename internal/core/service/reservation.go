package service

import (
	"context"
	"errors"
	"time"

	"github.com/govalues/decimal"
	"github.com/teixeiranog/rifastatus/internal/core/domain"
	"go.uber.org/zap"
)

// Reserve allocates quantity numbers of the raffle to the buyer and creates
// the order holding them. Selection is deterministic (ascending value) and
// all-or-nothing: when fewer numbers are available the store mutates nothing
// and the error carries the count actually left.
func (s *Service) Reserve(ctx context.Context, raffleID uint64, quantity int, buyerID uint64) (*domain.Order, error) {
	if quantity < 1 {
		return nil, domain.ErrBadQuantity
	}

	raffle, err := s.GetRaffle(ctx, raffleID)
	if err != nil {
		return nil, err
	}
	if raffle.Status != domain.RaffleStatusActive {
		return nil, domain.ErrRaffleNotActive
	}

	qty, err := decimal.New(int64(quantity), 0)
	if err != nil {
		return nil, domain.ErrInternal
	}
	totalAmount, err := raffle.PricePerNumber.Mul(qty)
	if err != nil {
		s.logger.Error("Order amount", zap.Error(err))
		return nil, domain.ErrInternal
	}

	now := time.Now()
	order := &domain.Order{
		RaffleID:          raffleID,
		BuyerID:           buyerID,
		RequestedQuantity: quantity,
		TotalAmount:       totalAmount,
		Status:            domain.OrderStatusPending,
		CreatedAt:         now,
		ExpiresAt:         now.Add(domain.HoldDuration),
	}

	newOrder, err := s.repo.CreateOrderReservingNumbers(ctx, order)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientNumbers) {
			return nil, err
		}
		s.logger.Error("Reserve numbers", zap.Uint64("raffle", raffleID), zap.Error(err))
		return nil, err
	}

	s.invalidateAvailability(ctx, raffleID)

	return newOrder, nil
}

// AvailableCount reads the number of still-purchasable numbers, through the
// cache when one is configured.
func (s *Service) AvailableCount(ctx context.Context, raffleID uint64) (int, error) {
	if s.cache != nil {
		count, ok, err := s.cache.GetAvailableCount(ctx, raffleID)
		if err != nil {
			s.logger.Warn("Availability cache read", zap.Error(err))
		} else if ok {
			return count, nil
		}
	}

	if _, err := s.GetRaffle(ctx, raffleID); err != nil {
		return 0, err
	}

	count, err := s.repo.CountNumbers(ctx, raffleID, domain.NumberStatusAvailable)
	if err != nil {
		s.logger.Error("Count available numbers", zap.Error(err))
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.SetAvailableCount(ctx, raffleID, count); err != nil {
			s.logger.Warn("Availability cache write", zap.Error(err))
		}
	}

	return count, nil
}
