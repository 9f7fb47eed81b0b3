package domain

import "time"

type NumberStatus string

const (
	NumberStatusAvailable NumberStatus = "AVAILABLE"
	NumberStatusReserved  NumberStatus = "RESERVED"
	NumberStatusSold      NumberStatus = "SOLD"
)

// Number is one purchasable numbered entry of a raffle. OwnerID and OrderID
// are set iff the number is reserved or sold.
type Number struct {
	ID         uint64
	RaffleID   uint64
	Value      int
	Status     NumberStatus
	OwnerID    *uint64
	OrderID    *uint64
	ReservedAt *time.Time
}
