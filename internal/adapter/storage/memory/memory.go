// Package memory implements the repository port on process memory. It keeps
// the same atomic contract as the postgres repository behind a single mutex
// and exists for tests and local runs without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/teixeiranog/rifastatus/internal/core/domain"
	"github.com/teixeiranog/rifastatus/internal/core/port"
)

type Repository struct {
	mu      sync.Mutex
	raffles map[uint64]*domain.Raffle
	numbers map[uint64][]*domain.Number // by raffle id, ascending value
	orders  map[uint64]*domain.Order
	users   map[uint64]*domain.User

	nextRaffleID uint64
	nextNumberID uint64
	nextOrderID  uint64
	nextUserID   uint64
}

func NewRepository() *Repository {
	return &Repository{
		raffles: make(map[uint64]*domain.Raffle),
		numbers: make(map[uint64][]*domain.Number),
		orders:  make(map[uint64]*domain.Order),
		users:   make(map[uint64]*domain.User),
	}
}

func copyOrder(o *domain.Order) *domain.Order {
	c := *o
	c.NumberValues = append([]int(nil), o.NumberValues...)
	return &c
}

func copyNumber(n *domain.Number) *domain.Number {
	c := *n
	return &c
}

func (r *Repository) CreateRaffle(_ context.Context, raffle *domain.Raffle) (*domain.Raffle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextRaffleID++
	raffle.ID = r.nextRaffleID
	c := *raffle
	r.raffles[raffle.ID] = &c

	numbers := make([]*domain.Number, 0, raffle.TotalNumbers)
	for v := 1; v <= raffle.TotalNumbers; v++ {
		r.nextNumberID++
		numbers = append(numbers, &domain.Number{
			ID:       r.nextNumberID,
			RaffleID: raffle.ID,
			Value:    v,
			Status:   domain.NumberStatusAvailable,
		})
	}
	r.numbers[raffle.ID] = numbers

	return raffle, nil
}

func (r *Repository) ReadRaffle(_ context.Context, raffleID uint64) (*domain.Raffle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	raffle, ok := r.raffles[raffleID]
	if !ok {
		return nil, domain.ErrDataNotFound
	}
	c := *raffle
	return &c, nil
}

func (r *Repository) UpdateRaffleStats(_ context.Context, raffleID uint64, stats domain.RaffleStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	raffle, ok := r.raffles[raffleID]
	if !ok {
		return domain.ErrDataNotFound
	}
	raffle.SoldCount = stats.SoldCount
	raffle.RevenueTotal = stats.RevenueTotal
	raffle.ParticipantCount = stats.ParticipantCount
	return nil
}

func (r *Repository) CountNumbers(_ context.Context, raffleID uint64, status domain.NumberStatus) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, n := range r.numbers[raffleID] {
		if n.Status == status {
			count++
		}
	}
	return count, nil
}

func (r *Repository) ListNumbers(_ context.Context, raffleID uint64, status domain.NumberStatus) ([]*domain.Number, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := make([]*domain.Number, 0)
	for _, n := range r.numbers[raffleID] {
		if n.Status == status {
			list = append(list, copyNumber(n))
		}
	}
	return list, nil
}

func (r *Repository) CreateOrderReservingNumbers(_ context.Context, order *domain.Order) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.raffles[order.RaffleID]; !ok {
		return nil, domain.ErrDataNotFound
	}

	available := make([]*domain.Number, 0, order.RequestedQuantity)
	for _, n := range r.numbers[order.RaffleID] {
		if n.Status == domain.NumberStatusAvailable {
			available = append(available, n)
			if len(available) == order.RequestedQuantity {
				break
			}
		}
	}

	if len(available) < order.RequestedQuantity {
		return nil, &domain.InsufficientNumbersError{
			Requested: order.RequestedQuantity,
			Available: len(available),
		}
	}

	r.nextOrderID++
	order.ID = r.nextOrderID
	order.Status = domain.OrderStatusReserved
	order.NumberValues = make([]int, 0, len(available))
	for _, n := range available {
		order.NumberValues = append(order.NumberValues, n.Value)
		n.Status = domain.NumberStatusReserved
		owner, orderID, at := order.BuyerID, order.ID, order.CreatedAt
		n.OwnerID = &owner
		n.OrderID = &orderID
		n.ReservedAt = &at
	}

	r.orders[order.ID] = copyOrder(order)
	return order, nil
}

func (r *Repository) ReadOrder(_ context.Context, orderID uint64) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[orderID]
	if !ok {
		return nil, domain.ErrDataNotFound
	}
	return copyOrder(order), nil
}

func (r *Repository) ListOrdersByBuyer(_ context.Context, buyerID uint64) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := make([]*domain.Order, 0)
	for _, o := range r.orders {
		if o.BuyerID == buyerID {
			list = append(list, copyOrder(o))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *Repository) ListOrdersByStatus(_ context.Context, raffleID uint64, statuses []domain.OrderStatus) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := make([]*domain.Order, 0)
	for _, o := range r.orders {
		if o.RaffleID != raffleID {
			continue
		}
		for _, st := range statuses {
			if o.Status == st {
				list = append(list, copyOrder(o))
				break
			}
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *Repository) ListOrdersDue(_ context.Context, before time.Time) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := make([]*domain.Order, 0)
	for _, o := range r.orders {
		if (o.Status == domain.OrderStatusReserved || o.Status == domain.OrderStatusAwaitingPayment) &&
			o.ExpiresAt.Before(before) {
			list = append(list, copyOrder(o))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *Repository) UpdateOrderTx(_ context.Context, orderID uint64, fn port.UpdateOrderFn) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[orderID]
	if !ok {
		return nil, domain.ErrDataNotFound
	}

	work := copyOrder(order)
	prev := work.Status
	if err := fn(work); err != nil {
		return nil, err
	}
	r.orders[orderID] = copyOrder(work)

	switch {
	case work.Status == domain.OrderStatusPaid && prev != domain.OrderStatusPaid:
		r.moveOrderNumbers(work, domain.NumberStatusSold, false)
	case (work.Status == domain.OrderStatusExpired || work.Status == domain.OrderStatusCancelled) &&
		prev != domain.OrderStatusExpired && prev != domain.OrderStatusCancelled:
		r.moveOrderNumbers(work, domain.NumberStatusAvailable, true)
	}

	return copyOrder(work), nil
}

func (r *Repository) moveOrderNumbers(order *domain.Order, to domain.NumberStatus, clearLinkage bool) {
	for _, n := range r.numbers[order.RaffleID] {
		if n.OrderID == nil || *n.OrderID != order.ID || n.Status != domain.NumberStatusReserved {
			continue
		}
		n.Status = to
		if clearLinkage {
			n.OwnerID = nil
			n.OrderID = nil
			n.ReservedAt = nil
		}
	}
}

func (r *Repository) CreateUser(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Login == user.Login {
			return nil, domain.ErrConflictingData
		}
	}
	r.nextUserID++
	user.ID = r.nextUserID
	c := *user
	r.users[user.ID] = &c
	return user, nil
}

func (r *Repository) GetUserByLogin(_ context.Context, login string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Login == login {
			c := *u
			return &c, nil
		}
	}
	return nil, domain.ErrDataNotFound
}

// BackdateOrder rewrites the order's hold window so expiry paths can be
// exercised without waiting out the real hold duration. Test helper only.
func (r *Repository) BackdateOrder(orderID uint64, expiresAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order, ok := r.orders[orderID]; ok {
		order.ExpiresAt = expiresAt
	}
}
