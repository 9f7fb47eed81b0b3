// Package broker connects the engine to RabbitMQ: it publishes terminal
// order transitions for downstream consumers and drains the queue the
// payment processor webhooks land on.
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/teixeiranog/rifastatus/internal/adapter/config"
	"github.com/teixeiranog/rifastatus/internal/core/domain"
	"github.com/teixeiranog/rifastatus/internal/core/port"
	"go.uber.org/zap"
)

const (
	orderFinalizedQueue   = "order.finalized"
	paymentConfirmedQueue = "payment.confirmed"
)

// OrderFinalizedEvent is published once per order reaching a terminal
// status. Delivery is at-least-once; consumers key on order_id.
type OrderFinalizedEvent struct {
	OrderID      uint64 `json:"order_id"`
	RaffleID     uint64 `json:"raffle_id"`
	BuyerID      uint64 `json:"buyer_id"`
	Status       string `json:"status"`
	NumberValues []int  `json:"numbers"`
	TotalAmount  string `json:"total_amount"`
	FinalizedAt  string `json:"finalized_at"`
}

// PaymentConfirmedEvent is what the payment processor webhook bridge drops
// on the payment.confirmed queue.
type PaymentConfirmedEvent struct {
	OrderID   uint64 `json:"order_id"`
	Reference string `json:"reference"`
}

type Broker struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	logger *zap.Logger
}

func New(cfg *config.Broker, log *zap.Logger) (*Broker, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("channel open: %w", err)
	}

	for _, queue := range []string{orderFinalizedQueue, paymentConfirmedQueue} {
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("queue declare %s: %w", queue, err)
		}
	}

	return &Broker{conn: conn, ch: ch, logger: log}, nil
}

// OrderFinalized implements port.OrderNotifier.
func (b *Broker) OrderFinalized(ctx context.Context, order *domain.Order) error {
	event := OrderFinalizedEvent{
		OrderID:      order.ID,
		RaffleID:     order.RaffleID,
		BuyerID:      order.BuyerID,
		Status:       string(order.Status),
		NumberValues: order.NumberValues,
		TotalAmount:  order.TotalAmount.String(),
		FinalizedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return b.ch.PublishWithContext(ctx, "", orderFinalizedQueue, false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
}

// ConsumeConfirmations feeds webhook payloads into the engine. A
// confirmation for an already finalized order is acked and dropped; the
// race against expiry is settled inside the engine, not here.
func (b *Broker) ConsumeConfirmations(ctx context.Context, confirmer port.PaymentConfirmer) error {
	msgs, err := b.ch.Consume(paymentConfirmedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}

			var event PaymentConfirmedEvent
			if err := json.Unmarshal(d.Body, &event); err != nil {
				b.logger.Error("Bad confirmation payload", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}

			err := confirmer.ConfirmPayment(ctx, event.OrderID)
			switch {
			case err == nil:
				_ = d.Ack(false)
			case errors.Is(err, domain.ErrOrderFinalized), errors.Is(err, domain.ErrOrderNotFound):
				b.logger.Info("Dropping stale confirmation",
					zap.Uint64("order", event.OrderID), zap.Error(err))
				_ = d.Ack(false)
			default:
				b.logger.Error("Confirmation failed, requeueing",
					zap.Uint64("order", event.OrderID), zap.Error(err))
				_ = d.Nack(false, true)
			}
		}
	}
}

func (b *Broker) Close() {
	_ = b.ch.Close()
	_ = b.conn.Close()
}
