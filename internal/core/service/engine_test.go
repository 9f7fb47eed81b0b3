package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/govalues/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teixeiranog/rifastatus/internal/adapter/storage/memory"
	"github.com/teixeiranog/rifastatus/internal/core/domain"
	"github.com/teixeiranog/rifastatus/internal/core/service"
	"go.uber.org/zap"
)

// stubGateway issues a deterministic charge per order and never fails.
type stubGateway struct{}

func (stubGateway) CreateCharge(_ context.Context, order *domain.Order) (*domain.Charge, error) {
	return &domain.Charge{
		OrderID:   order.ID,
		Reference: fmt.Sprintf("ref-%d", order.ID),
		Code:      fmt.Sprintf("RIFA-%d-test", order.ID),
		ExpiresAt: order.ExpiresAt,
	}, nil
}

// recordingNotifier counts finalization notifications per order.
type recordingNotifier struct {
	mu    sync.Mutex
	calls map[uint64]int
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{calls: make(map[uint64]int)}
}

func (n *recordingNotifier) OrderFinalized(_ context.Context, order *domain.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls[order.ID]++
	return nil
}

func (n *recordingNotifier) count(orderID uint64) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[orderID]
}

func newEngine(t *testing.T, totalNumbers int) (*service.Service, *memory.Repository, *recordingNotifier, *domain.Raffle) {
	t.Helper()

	repo := memory.NewRepository()
	notifier := newRecordingNotifier()
	logger, _ := zap.NewProduction()

	s, err := service.NewService(repo, nil, stubGateway{}, notifier, nil, logger)
	require.NoError(t, err)

	raffle, err := s.CreateRaffle(context.Background(), &domain.Raffle{
		Title:          "engine test",
		PricePerNumber: decimal.MustParse("5.00"),
		TotalNumbers:   totalNumbers,
	})
	require.NoError(t, err)

	return s, repo, notifier, raffle
}

func TestEngine_ReserveThenReclaim(t *testing.T) {
	ctx := context.Background()
	s, repo, _, raffle := newEngine(t, 10)

	order, err := s.Reserve(ctx, raffle.ID, 3, 1)
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusReserved, order.Status)
	assert.Equal(t, []int{1, 2, 3}, order.NumberValues)
	assert.Equal(t, 0, order.TotalAmount.Cmp(decimal.MustParse("15.00")))
	assert.Equal(t, domain.HoldDuration, order.ExpiresAt.Sub(order.CreatedAt))

	available, err := s.AvailableCount(ctx, raffle.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, available)

	repo.BackdateOrder(order.ID, time.Now().Add(-time.Minute))

	reclaimed, err := s.ExpireDueOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, reclaimed)

	expired, err := s.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusExpired, expired.Status)
	assert.Equal(t, []int{1, 2, 3}, expired.NumberValues)

	available, err = s.AvailableCount(ctx, raffle.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, available)

	stats, err := s.GetRaffle(ctx, raffle.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.SoldCount)

	// an idle sweep reclaims nothing
	reclaimed, err = s.ExpireDueOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, reclaimed)
}

func TestEngine_ConfirmBeforeExpiry(t *testing.T) {
	ctx := context.Background()
	s, repo, notifier, raffle := newEngine(t, 10)

	order, err := s.Reserve(ctx, raffle.ID, 3, 1)
	require.NoError(t, err)

	charge, err := s.GenerateCharge(ctx, order.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, charge.Reference)

	require.NoError(t, s.ConfirmPayment(ctx, order.ID))

	paid, err := s.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, paid.Status)

	sold, err := repo.CountNumbers(ctx, raffle.ID, domain.NumberStatusSold)
	require.NoError(t, err)
	assert.Equal(t, 3, sold)

	available, err := s.AvailableCount(ctx, raffle.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, available)

	stats, err := s.GetRaffle(ctx, raffle.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.SoldCount)
	assert.Equal(t, 0, stats.RevenueTotal.Cmp(decimal.MustParse("15.00")))
	assert.Equal(t, 1, stats.ParticipantCount)

	assert.Equal(t, 1, notifier.count(order.ID))

	// a settled order never expires, even after its window lapses
	repo.BackdateOrder(order.ID, time.Now().Add(-time.Minute))
	reclaimed, err := s.ExpireDueOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, reclaimed)

	still, err := s.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, still.Status)
}

func TestEngine_ConcurrentReserve(t *testing.T) {
	ctx := context.Background()
	s, _, _, raffle := newEngine(t, 10)

	type result struct {
		order *domain.Order
		err   error
	}
	results := make([]result, 2)

	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			order, err := s.Reserve(ctx, raffle.ID, 6, uint64(i+1))
			results[i] = result{order, err}
		}(i)
	}
	wg.Wait()

	var won, lost *result
	for i := range results {
		if results[i].err == nil {
			won = &results[i]
		} else {
			lost = &results[i]
		}
	}
	require.NotNil(t, won, "exactly one reservation must succeed")
	require.NotNil(t, lost, "exactly one reservation must fail")

	assert.Len(t, won.order.NumberValues, 6)

	var insufficient *domain.InsufficientNumbersError
	require.ErrorAs(t, lost.err, &insufficient)
	assert.Equal(t, 6, insufficient.Requested)
	assert.Equal(t, 4, insufficient.Available)

	// the failed attempt held nothing back
	available, err := s.AvailableCount(ctx, raffle.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, available)
}

func TestEngine_InsufficientLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	s, _, _, raffle := newEngine(t, 5)

	_, err := s.Reserve(ctx, raffle.ID, 3, 1)
	require.NoError(t, err)

	_, err = s.Reserve(ctx, raffle.ID, 3, 2)
	var insufficient *domain.InsufficientNumbersError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 2, insufficient.Available)

	available, err := s.AvailableCount(ctx, raffle.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, available)

	orders, err := s.OrdersByBuyer(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestEngine_ChargeIdempotent(t *testing.T) {
	ctx := context.Background()
	s, _, _, raffle := newEngine(t, 10)

	order, err := s.Reserve(ctx, raffle.ID, 2, 1)
	require.NoError(t, err)

	first, err := s.GenerateCharge(ctx, order.ID)
	require.NoError(t, err)

	second, err := s.GenerateCharge(ctx, order.ID)
	require.NoError(t, err)

	assert.Equal(t, first.Reference, second.Reference)
	assert.Equal(t, first.Code, second.Code)
}

func TestEngine_ConfirmWinsOverSweep(t *testing.T) {
	ctx := context.Background()
	s, repo, _, raffle := newEngine(t, 10)

	order, err := s.Reserve(ctx, raffle.ID, 3, 1)
	require.NoError(t, err)

	repo.BackdateOrder(order.ID, time.Now().Add(-time.Second))

	// the confirmation lands before the sweeper gets to the order
	require.NoError(t, s.ConfirmPayment(ctx, order.ID))

	reclaimed, err := s.ExpireDueOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, reclaimed)

	paid, err := s.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, paid.Status)
}

func TestEngine_LateConfirmationRejected(t *testing.T) {
	ctx := context.Background()
	s, repo, _, raffle := newEngine(t, 10)

	order, err := s.Reserve(ctx, raffle.ID, 3, 1)
	require.NoError(t, err)

	repo.BackdateOrder(order.ID, time.Now().Add(-time.Second))

	reclaimed, err := s.ExpireDueOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, reclaimed)

	err = s.ConfirmPayment(ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrOrderFinalized)

	expired, err := s.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusExpired, expired.Status)

	available, err := s.AvailableCount(ctx, raffle.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, available)
}

func TestEngine_Cancel(t *testing.T) {
	ctx := context.Background()
	s, _, notifier, raffle := newEngine(t, 10)

	order, err := s.Reserve(ctx, raffle.ID, 4, 1)
	require.NoError(t, err)

	require.NoError(t, s.Cancel(ctx, order.ID))

	cancelled, err := s.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)

	available, err := s.AvailableCount(ctx, raffle.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, available)

	assert.Equal(t, 1, notifier.count(order.ID))

	err = s.Cancel(ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrOrderFinalized)
	assert.Equal(t, 1, notifier.count(order.ID))
}

func TestEngine_AwaitSettlement(t *testing.T) {
	ctx := context.Background()
	s, _, notifier, raffle := newEngine(t, 10)

	order, err := s.Reserve(ctx, raffle.ID, 2, 1)
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = s.ConfirmPayment(ctx, order.ID)
	}()

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status, err := s.AwaitSettlement(waitCtx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, status)

	// waiting again on a settled order returns at once, without a second
	// notification
	status, err = s.AwaitSettlement(waitCtx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, status)
	assert.Equal(t, 1, notifier.count(order.ID))
}

func TestEngine_AwaitSettlementReclaimsLapsedHold(t *testing.T) {
	ctx := context.Background()
	s, repo, _, raffle := newEngine(t, 10)

	order, err := s.Reserve(ctx, raffle.ID, 2, 1)
	require.NoError(t, err)

	repo.BackdateOrder(order.ID, time.Now().Add(-time.Second))

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status, err := s.AwaitSettlement(waitCtx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusExpired, status)

	available, err := s.AvailableCount(ctx, raffle.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, available)
}

func TestEngine_AwaitSettlementTimeout(t *testing.T) {
	ctx := context.Background()
	s, _, _, raffle := newEngine(t, 10)

	order, err := s.Reserve(ctx, raffle.ID, 2, 1)
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()

	status, err := s.AwaitSettlement(waitCtx, order.ID)
	assert.ErrorIs(t, err, domain.ErrSettlementTimeout)
	assert.Equal(t, domain.OrderStatusReserved, status)
}

func TestEngine_StatsAcrossBuyers(t *testing.T) {
	ctx := context.Background()
	s, _, _, raffle := newEngine(t, 20)

	confirm := func(buyerID uint64, quantity int) {
		order, err := s.Reserve(ctx, raffle.ID, quantity, buyerID)
		require.NoError(t, err)
		require.NoError(t, s.ConfirmPayment(ctx, order.ID))
	}

	confirm(1, 3)
	confirm(2, 2)
	confirm(1, 1)

	// a cancelled order must not count
	order, err := s.Reserve(ctx, raffle.ID, 5, 3)
	require.NoError(t, err)
	require.NoError(t, s.Cancel(ctx, order.ID))

	stats, err := s.RecomputeStats(ctx, raffle.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, stats.SoldCount)
	assert.Equal(t, 0, stats.RevenueTotal.Cmp(decimal.MustParse("30.00")))
	assert.Equal(t, 2, stats.ParticipantCount)
}

func TestEngine_ErrorKinds(t *testing.T) {
	ctx := context.Background()
	s, _, _, raffle := newEngine(t, 10)

	_, err := s.Reserve(ctx, raffle.ID+100, 1, 1)
	assert.ErrorIs(t, err, domain.ErrRaffleNotFound)

	_, err = s.GetOrder(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	_, err = s.GenerateCharge(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	err = s.ConfirmPayment(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	var insufficient *domain.InsufficientNumbersError
	_, err = s.Reserve(ctx, raffle.ID, 11, 1)
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, errors.Is(err, domain.ErrInsufficientNumbers))
}
