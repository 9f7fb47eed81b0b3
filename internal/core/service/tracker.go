package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/teixeiranog/rifastatus/internal/core/domain"
	"go.uber.org/zap"
)

const settlementPollInterval = 500 * time.Millisecond

// settlementHub fans terminal transitions out to in-process waiters. Sends
// never block; AwaitSettlement also polls, so a dropped wakeup only delays
// the observation by one poll tick.
type settlementHub struct {
	mu   sync.Mutex
	subs map[uint64][]chan domain.OrderStatus
}

func newSettlementHub() *settlementHub {
	return &settlementHub{subs: make(map[uint64][]chan domain.OrderStatus)}
}

func (h *settlementHub) subscribe(orderID uint64) chan domain.OrderStatus {
	ch := make(chan domain.OrderStatus, 1)
	h.mu.Lock()
	h.subs[orderID] = append(h.subs[orderID], ch)
	h.mu.Unlock()
	return ch
}

func (h *settlementHub) unsubscribe(orderID uint64, ch chan domain.OrderStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.subs[orderID]
	for i, c := range subs {
		if c == ch {
			h.subs[orderID] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(h.subs[orderID]) == 0 {
		delete(h.subs, orderID)
	}
}

func (h *settlementHub) broadcast(orderID uint64, status domain.OrderStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[orderID] {
		select {
		case ch <- status:
		default:
		}
	}
}

// finalizedSet guards the once-per-order side effects of observing a
// terminal status, so repeated delivery of the same PAID state stays
// idempotent.
type finalizedSet struct {
	mu   sync.Mutex
	seen map[uint64]struct{}
}

func newFinalizedSet() *finalizedSet {
	return &finalizedSet{seen: make(map[uint64]struct{})}
}

func (f *finalizedSet) first(orderID uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.seen[orderID]; ok {
		return false
	}
	f.seen[orderID] = struct{}{}
	return true
}

// finalize runs the side effects of a terminal transition that already
// committed: availability cache drop, statistics recompute for settled
// orders, the external notification, and the in-process wakeup. Safe to
// reach more than once for the same order; the notification fires once.
func (s *Service) finalize(ctx context.Context, order *domain.Order) {
	s.invalidateAvailability(ctx, order.RaffleID)

	if order.Status == domain.OrderStatusPaid {
		if _, err := s.RecomputeStats(ctx, order.RaffleID); err != nil {
			s.logger.Error("Recompute stats", zap.Uint64("raffle", order.RaffleID), zap.Error(err))
		}
	}

	if s.finalized.first(order.ID) && s.notifier != nil {
		if err := s.notifier.OrderFinalized(ctx, order); err != nil {
			s.logger.Error("Notify order finalized", zap.Uint64("order", order.ID), zap.Error(err))
		}
	}

	s.hub.broadcast(order.ID, order.Status)
}

// AwaitSettlement blocks until the order reaches a terminal status or ctx
// expires. A lapsed hold found while waiting is reclaimed synchronously
// instead of waiting for the next sweep.
func (s *Service) AwaitSettlement(ctx context.Context, orderID uint64) (domain.OrderStatus, error) {
	sub := s.hub.subscribe(orderID)
	defer s.hub.unsubscribe(orderID, sub)

	ticker := time.NewTicker(settlementPollInterval)
	defer ticker.Stop()

	for {
		order, err := s.GetOrder(ctx, orderID)
		if err != nil {
			return "", err
		}

		if order.Due(time.Now()) {
			expired, err := s.expireOrder(ctx, orderID)
			if err == nil {
				order = expired
			} else if !errors.Is(err, domain.ErrOrderFinalized) {
				return "", err
			}
			// ErrOrderFinalized: confirmation got there first, re-read below
		}

		if order.Terminal() {
			if s.finalized.first(order.ID) && s.notifier != nil {
				if err := s.notifier.OrderFinalized(ctx, order); err != nil {
					s.logger.Error("Notify order finalized", zap.Uint64("order", order.ID), zap.Error(err))
				}
			}
			return order.Status, nil
		}

		select {
		case <-ctx.Done():
			return order.Status, domain.ErrSettlementTimeout
		case <-ticker.C:
		case <-sub:
		}
	}
}

// Cancel is the buyer-initiated reclaim. It shares the atomic release path
// with the sweeper and differs only in the terminal status written.
func (s *Service) Cancel(ctx context.Context, orderID uint64) error {
	updated, err := s.repo.UpdateOrderTx(ctx, orderID, func(o *domain.Order) error {
		if o.Terminal() {
			return domain.ErrOrderFinalized
		}
		o.Status = domain.OrderStatusCancelled
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrDataNotFound) {
			return domain.ErrOrderNotFound
		}
		return err
	}

	s.finalize(ctx, updated)
	return nil
}
