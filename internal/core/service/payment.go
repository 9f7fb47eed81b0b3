package service

import (
	"context"
	"errors"

	"github.com/teixeiranog/rifastatus/internal/core/domain"
	"go.uber.org/zap"
)

// GenerateCharge issues the processor charge for an order, moving it to
// AWAITING_PAYMENT. The order id is the idempotency key: an order that
// already carries a charge gets the same charge back unchanged.
func (s *Service) GenerateCharge(ctx context.Context, orderID uint64) (*domain.Charge, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Terminal() {
		return nil, domain.ErrOrderFinalized
	}
	if order.PaymentReference != nil {
		return chargeOf(order), nil
	}

	charge, err := s.gateway.CreateCharge(ctx, order)
	if err != nil {
		s.logger.Error("Gateway charge", zap.Uint64("order", orderID), zap.Error(err))
		return nil, domain.ErrPaymentGateway
	}

	updated, err := s.repo.UpdateOrderTx(ctx, orderID, func(o *domain.Order) error {
		if o.Terminal() {
			return domain.ErrOrderFinalized
		}
		if o.PaymentReference != nil {
			// a concurrent call won; keep its charge
			return nil
		}
		o.Status = domain.OrderStatusAwaitingPayment
		o.PaymentReference = &charge.Reference
		o.PaymentCode = &charge.Code
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrDataNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}

	return chargeOf(updated), nil
}

// ConfirmPayment settles the order: inside one commit the order is
// re-checked to still be non-terminal, moved to PAID and its numbers to
// SOLD. A confirmation landing after expiry or cancellation is rejected
// with ErrOrderFinalized; nothing is re-reserved.
func (s *Service) ConfirmPayment(ctx context.Context, orderID uint64) error {
	updated, err := s.repo.UpdateOrderTx(ctx, orderID, func(o *domain.Order) error {
		if o.Terminal() {
			return domain.ErrOrderFinalized
		}
		o.Status = domain.OrderStatusPaid
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrDataNotFound) {
			return domain.ErrOrderNotFound
		}
		if !errors.Is(err, domain.ErrOrderFinalized) {
			s.logger.Error("Confirm payment", zap.Uint64("order", orderID), zap.Error(err))
		}
		return err
	}

	s.finalize(ctx, updated)
	return nil
}

func chargeOf(order *domain.Order) *domain.Charge {
	charge := &domain.Charge{
		OrderID:   order.ID,
		ExpiresAt: order.ExpiresAt,
	}
	if order.PaymentReference != nil {
		charge.Reference = *order.PaymentReference
	}
	if order.PaymentCode != nil {
		charge.Code = *order.PaymentCode
	}
	return charge
}
