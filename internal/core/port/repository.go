package port

import (
	"context"
	"time"

	"github.com/teixeiranog/rifastatus/internal/core/domain"
)

// UpdateOrderFn mutates an order inside the storage transaction that also
// re-reads it with a row lock. Returning an error rolls the whole
// transaction back. After the callback the storage layer applies the number
// transitions implied by the status change (sold on PAID, released on
// EXPIRED/CANCELLED) in the same transaction.
type UpdateOrderFn func(order *domain.Order) error

//go:generate mockgen -source=repository.go -destination=mock/repository.go -package=mock
type Repository interface {
	// Raffle
	CreateRaffle(ctx context.Context, raffle *domain.Raffle) (*domain.Raffle, error)
	ReadRaffle(ctx context.Context, raffleID uint64) (*domain.Raffle, error)
	UpdateRaffleStats(ctx context.Context, raffleID uint64, stats domain.RaffleStats) error

	// Number
	CountNumbers(ctx context.Context, raffleID uint64, status domain.NumberStatus) (int, error)
	ListNumbers(ctx context.Context, raffleID uint64, status domain.NumberStatus) ([]*domain.Number, error)

	// Order
	CreateOrderReservingNumbers(ctx context.Context, order *domain.Order) (*domain.Order, error)
	ReadOrder(ctx context.Context, orderID uint64) (*domain.Order, error)
	ListOrdersByBuyer(ctx context.Context, buyerID uint64) ([]*domain.Order, error)
	ListOrdersByStatus(ctx context.Context, raffleID uint64, statuses []domain.OrderStatus) ([]*domain.Order, error)
	ListOrdersDue(ctx context.Context, before time.Time) ([]*domain.Order, error)
	UpdateOrderTx(ctx context.Context, orderID uint64, fn UpdateOrderFn) (*domain.Order, error)

	// User
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	GetUserByLogin(ctx context.Context, login string) (*domain.User, error)
}
