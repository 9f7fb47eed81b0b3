package domain

import (
	"time"

	"github.com/govalues/decimal"
)

type RaffleStatus string

const (
	RaffleStatusActive   RaffleStatus = "ACTIVE"
	RaffleStatusFinished RaffleStatus = "FINISHED"
)

type Raffle struct {
	ID               uint64
	Title            string
	PricePerNumber   decimal.Decimal
	TotalNumbers     int
	SoldCount        int
	RevenueTotal     decimal.Decimal
	ParticipantCount int
	Status           RaffleStatus
	DrawAt           time.Time
	WinningNumber    *int
}

// RaffleStats is the recomputed counter triple written back onto a raffle.
// It is always derived from the full set of paid orders, never incremented.
type RaffleStats struct {
	SoldCount        int
	RevenueTotal     decimal.Decimal
	ParticipantCount int
}
