package gateway

import (
	"context"
	"time"

	"github.com/teixeiranog/rifastatus/internal/core/domain"
	"github.com/teixeiranog/rifastatus/internal/core/port"
)

// RecallCharges re-arms simulated confirmations for charges that were still
// awaiting payment when the process last stopped. Holds all expire within
// HoldDuration, so listing everything due before now+HoldDuration covers
// every live hold.
func RecallCharges(ctx context.Context, repo port.Repository, client *Client) error {
	orders, err := repo.ListOrdersDue(ctx, time.Now().Add(domain.HoldDuration+time.Minute))
	if err != nil {
		return err
	}
	for _, order := range orders {
		if order.Status == domain.OrderStatusAwaitingPayment && order.PaymentReference != nil {
			client.ScheduleConfirmation(order.ID)
		}
	}

	return nil
}
