package port

import (
	"context"

	"github.com/teixeiranog/rifastatus/internal/core/domain"
)

//go:generate mockgen -source=notifier.go -destination=mock/notifier.go -package=mock

// OrderNotifier delivers terminal order transitions to interested parties.
// Delivery is at-least-once; consumers must tolerate repeats.
type OrderNotifier interface {
	OrderFinalized(ctx context.Context, order *domain.Order) error
}
