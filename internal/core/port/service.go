package port

import (
	"context"

	"github.com/teixeiranog/rifastatus/internal/core/domain"
)

type Service interface {
	RegisterUser(ctx context.Context, user *domain.User) (*domain.User, error)
	LoginUser(ctx context.Context, login string, password string) (string, error)

	CreateRaffle(ctx context.Context, raffle *domain.Raffle) (*domain.Raffle, error)
	GetRaffle(ctx context.Context, raffleID uint64) (*domain.Raffle, error)
	AvailableCount(ctx context.Context, raffleID uint64) (int, error)

	Reserve(ctx context.Context, raffleID uint64, quantity int, buyerID uint64) (*domain.Order, error)
	GenerateCharge(ctx context.Context, orderID uint64) (*domain.Charge, error)
	ConfirmPayment(ctx context.Context, orderID uint64) error
	Cancel(ctx context.Context, orderID uint64) error

	GetOrder(ctx context.Context, orderID uint64) (*domain.Order, error)
	OrdersByBuyer(ctx context.Context, buyerID uint64) ([]*domain.Order, error)
	AwaitSettlement(ctx context.Context, orderID uint64) (domain.OrderStatus, error)

	RecomputeStats(ctx context.Context, raffleID uint64) (*domain.Raffle, error)
}
