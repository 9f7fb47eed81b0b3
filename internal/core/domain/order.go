package domain

import (
	"time"

	"github.com/govalues/decimal"
)

type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "PENDING"
	OrderStatusReserved        OrderStatus = "RESERVED"
	OrderStatusAwaitingPayment OrderStatus = "AWAITING_PAYMENT"
	OrderStatusPaid            OrderStatus = "PAID"
	OrderStatusExpired         OrderStatus = "EXPIRED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
)

// HoldDuration is the fixed payment window granted to every order.
const HoldDuration = 15 * time.Minute

// Order is a buyer's claim on a set of numbers. NumberValues is assigned once
// at creation and never changes afterwards; reclaim and settlement only move
// statuses.
type Order struct {
	ID                uint64
	RaffleID          uint64
	BuyerID           uint64
	RequestedQuantity int
	NumberValues      []int
	TotalAmount       decimal.Decimal
	Status            OrderStatus
	PaymentReference  *string
	PaymentCode       *string
	CreatedAt         time.Time
	ExpiresAt         time.Time
}

// Terminal reports whether the order reached one of its immutable end states.
func (o *Order) Terminal() bool {
	switch o.Status {
	case OrderStatusPaid, OrderStatusExpired, OrderStatusCancelled:
		return true
	}
	return false
}

// Due reports whether the hold lapsed without payment at the given instant.
func (o *Order) Due(now time.Time) bool {
	return !o.Terminal() && now.After(o.ExpiresAt)
}
