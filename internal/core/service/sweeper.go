package service

import (
	"context"
	"errors"
	"time"

	"github.com/teixeiranog/rifastatus/internal/core/domain"
	"go.uber.org/zap"
)

// expireOrder reclaims a single lapsed hold. The current status is
// re-checked inside the transaction: an order that meanwhile settled is
// left alone and ErrOrderFinalized comes back.
func (s *Service) expireOrder(ctx context.Context, orderID uint64) (*domain.Order, error) {
	updated, err := s.repo.UpdateOrderTx(ctx, orderID, func(o *domain.Order) error {
		if o.Terminal() {
			return domain.ErrOrderFinalized
		}
		o.Status = domain.OrderStatusExpired
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.finalize(ctx, updated)
	return updated, nil
}

// ExpireDueOrders reclaims every order whose hold lapsed without payment.
// Orders are processed independently: one failure is logged and the sweep
// moves on. Returns the number of orders actually reclaimed.
func (s *Service) ExpireDueOrders(ctx context.Context) (int, error) {
	due, err := s.repo.ListOrdersDue(ctx, time.Now())
	if err != nil {
		s.logger.Error("List due orders", zap.Error(err))
		return 0, err
	}

	reclaimed := 0
	for _, order := range due {
		_, err := s.expireOrder(ctx, order.ID)
		if err != nil {
			if errors.Is(err, domain.ErrOrderFinalized) {
				// lost the race to a confirmation, which always wins
				continue
			}
			s.logger.Error("Reclaim order", zap.Uint64("order", order.ID), zap.Error(err))
			continue
		}
		reclaimed++
	}

	return reclaimed, nil
}

// Sweeper periodically reclaims lapsed holds.
type Sweeper struct {
	svc      *Service
	interval time.Duration
	logger   *zap.Logger
}

func NewSweeper(svc *Service, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{svc: svc, interval: interval, logger: logger}
}

func (w *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("Sweeper stopped")
			return
		case <-ticker.C:
			reclaimed, err := w.svc.ExpireDueOrders(ctx)
			if err != nil {
				continue
			}
			if reclaimed > 0 {
				w.logger.Info("Reclaimed lapsed holds", zap.Int("orders", reclaimed))
			}
		}
	}
}
