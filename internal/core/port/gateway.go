package port

import (
	"context"

	"github.com/teixeiranog/rifastatus/internal/core/domain"
)

//go:generate mockgen -source=gateway.go -destination=mock/gateway.go -package=mock

// PaymentGateway synthesizes processor charges for orders. Implementations
// must be safe to call more than once for the same order: the engine keeps
// the first persisted charge and discards later ones.
type PaymentGateway interface {
	CreateCharge(ctx context.Context, order *domain.Order) (*domain.Charge, error)
}

// PaymentConfirmer is the engine-side sink for asynchronous payment
// confirmations. Gateway adapters (webhook consumers, simulators) call it
// when the processor reports a completed payment.
type PaymentConfirmer interface {
	ConfirmPayment(ctx context.Context, orderID uint64) error
}
