// Package gateway is the payment processor adapter. The real processor is
// replaced by a synthesizer that builds charge payloads locally and, when
// simulation is on, confirms them after a configured delay through the same
// engine entry point a webhook would use.
package gateway

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/teixeiranog/rifastatus/internal/adapter/config"
	"github.com/teixeiranog/rifastatus/internal/core/domain"
	"github.com/teixeiranog/rifastatus/internal/core/port"
	"go.uber.org/zap"
)

type Client struct {
	logger       *zap.Logger
	simulate     bool
	confirmAfter time.Duration
	orderQueue   chan uint64
}

func NewClient(cfg *config.Gateway, log *zap.Logger) (*Client, error) {
	return &Client{
		logger:       log,
		simulate:     cfg.Simulate,
		confirmAfter: cfg.ConfirmAfter,
		orderQueue:   make(chan uint64, 16),
	}, nil
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// CreateCharge synthesizes the processor payload for an order. The engine
// persists the first charge per order, so repeated calls for the same order
// are harmless.
func (c *Client) CreateCharge(ctx context.Context, order *domain.Order) (*domain.Charge, error) {
	reference, err := randomToken(16)
	if err != nil {
		return nil, err
	}
	short, err := randomToken(4)
	if err != nil {
		return nil, err
	}

	charge := &domain.Charge{
		OrderID:   order.ID,
		Reference: reference,
		Code:      fmt.Sprintf("RIFA-%d-%s", order.ID, short),
		ExpiresAt: order.ExpiresAt,
	}

	if c.simulate {
		c.ScheduleConfirmation(order.ID)
	}

	return charge, nil
}

// ScheduleConfirmation arms a delayed confirmation for the order. A no-op
// unless simulation is enabled.
func (c *Client) ScheduleConfirmation(orderID uint64) {
	if !c.simulate {
		return
	}
	go func() {
		r := time.NewTimer(c.confirmAfter)
		defer r.Stop()
		<-r.C
		c.logger.Debug("> put order in queue (simulated confirmation)", zap.Uint64("order", orderID))
		c.orderQueue <- orderID
		c.logger.Debug("< put order in queue (simulated confirmation)", zap.Uint64("order", orderID))
	}()
}

// StartSimulation launches the workers draining scheduled confirmations
// into the engine. A confirmation landing on an already finalized order is
// expected (the hold may have lapsed first) and only logged.
func (c *Client) StartSimulation(ctx context.Context, confirmer port.PaymentConfirmer, workers int) {
	if !c.simulate {
		return
	}

	for i := 0; i < workers; i++ {
		go func() {
			for {
				select {
				case orderID := <-c.orderQueue:
					err := confirmer.ConfirmPayment(ctx, orderID)
					if err != nil {
						if errors.Is(err, domain.ErrOrderFinalized) {
							c.logger.Debug("Simulated confirmation on finalized order",
								zap.Uint64("order", orderID))
							continue
						}
						c.logger.Error("Simulated confirmation failed",
							zap.Uint64("order", orderID), zap.Error(err))
						continue
					}
					c.logger.Debug("Simulated confirmation applied", zap.Uint64("order", orderID))
				case <-ctx.Done():
					c.logger.Debug("Finished worker")
					return
				}
			}
		}()
	}
}
