package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInternal = errors.New("internal error")

	// * Data errors.
	ErrDataNotFound    = errors.New("data not found")
	ErrConflictingData = errors.New("data conflicts with existing data in unique column")
	ErrTransient       = errors.New("transient storage failure")

	// * Communication errors.
	ErrBadRequest = errors.New("error parsing request")

	// * Authority errors.
	ErrTokenCreation              = errors.New("error creating token")
	ErrExpiredToken               = errors.New("access token has expired")
	ErrInvalidToken               = errors.New("access token is invalid")
	ErrInvalidCredentials         = errors.New("invalid login or password")
	ErrEmptyAuthorizationHeader   = errors.New("authorization header is not provided")
	ErrInvalidAuthorizationHeader = errors.New("authorization header format is invalid")
	ErrInvalidAuthorizationType   = errors.New("authorization type is not supported")
	ErrForbidden                  = errors.New("user is forbidden to access the resource")

	// * Business errors.
	ErrRaffleNotFound      = errors.New("raffle not found")
	ErrRaffleNotActive     = errors.New("raffle is not open for sale")
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderFinalized      = errors.New("order is already in a terminal state")
	ErrInsufficientNumbers = errors.New("not enough available numbers")
	ErrBadQuantity         = errors.New("requested quantity must be positive")
	ErrPaymentGateway      = errors.New("payment gateway failure")
	ErrSettlementTimeout   = errors.New("order did not settle within the wait window")
)

// InsufficientNumbersError reports how much inventory was actually left when
// an allocation failed. It matches ErrInsufficientNumbers via errors.Is.
type InsufficientNumbersError struct {
	Requested int
	Available int
}

func (e *InsufficientNumbersError) Error() string {
	return fmt.Sprintf("not enough available numbers: requested %d, available %d",
		e.Requested, e.Available)
}

func (e *InsufficientNumbersError) Is(target error) bool {
	return target == ErrInsufficientNumbers
}
