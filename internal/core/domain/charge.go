package domain

import "time"

// Charge is the payment-processor-facing payload generated for an order.
// Reference is the processor correlation id, Code the human-readable
// copy-and-paste payment string shown to the buyer.
type Charge struct {
	OrderID   uint64
	Reference string
	Code      string
	ExpiresAt time.Time
}
