package service_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/govalues/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teixeiranog/rifastatus/internal/adapter/auth"
	"github.com/teixeiranog/rifastatus/internal/adapter/config"
	"github.com/teixeiranog/rifastatus/internal/adapter/storage"
	"github.com/teixeiranog/rifastatus/internal/adapter/storage/repository"
	"github.com/teixeiranog/rifastatus/internal/core/domain"
	"github.com/teixeiranog/rifastatus/internal/core/port"
	"github.com/teixeiranog/rifastatus/internal/core/port/mock"
	"github.com/teixeiranog/rifastatus/internal/core/service"
	"github.com/teixeiranog/rifastatus/internal/e2etest/testdb"
	"go.uber.org/zap"
)

var dbtest *testdb.TestDBInstance

func setup() {
	var err error
	dbtest, err = testdb.NewTestDBInstance()
	if err != nil {
		log.Fatal(err)
	}
}
func shutdown() {
	if dbtest != nil {
		dbtest.Down()
	}
}

func TestMain(m *testing.M) {
	setup()
	if dbtest == nil {
		fmt.Println("TEST_DATABASE_URI not set, skipping DB tests")
		os.Exit(0)
	}
	code := m.Run()
	shutdown()
	os.Exit(code)
}

func getDeps() (port.Repository, port.TokenService, error) {
	db, err := storage.NewDBStorage(context.Background(), &config.Database{DSN: dbtest.DSN})
	if err != nil {
		return nil, nil, err
	}
	err = db.RunMigrations()
	if err != nil {
		return nil, nil, err
	}
	repo, err := repository.NewRepository(db)
	if err != nil {
		return nil, nil, err
	}
	ts, err := auth.New()
	if err != nil {
		return nil, nil, err
	}

	return repo, ts, nil
}

func TestServiceDB_UserRegister(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	logger, _ := zap.NewProduction()

	type userRegisterTest struct {
		name      string
		user      domain.User
		expError  error
		expResult *domain.User
	}

	tests := []userRegisterTest{
		{
			name:      "Register good",
			user:      domain.User{Login: "test", Password: "test"},
			expError:  nil,
			expResult: &domain.User{Login: "test"},
		},
		{
			name:      "Register good",
			user:      domain.User{Login: "test2", Password: "test"},
			expError:  nil,
			expResult: &domain.User{Login: "test2"},
		},
		{
			name:      "Register already exists",
			user:      domain.User{Login: "test", Password: "test"},
			expError:  domain.ErrConflictingData,
			expResult: nil,
		},
	}

	repo, ts, err := getDeps()
	assert.NoError(t, err)

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			gateway := mock.NewMockPaymentGateway(mockCtrl)

			s, err := service.NewService(repo, ts, gateway, nil, nil, logger)
			assert.NoError(t, err)

			result, err := s.RegisterUser(context.Background(), &test.user)

			if test.expResult != nil {
				assert.Equal(t, test.expResult.Login, result.Login)
			}
			assert.Equal(t, test.expError, err)
		})
	}
}

func TestServiceDB_ReserveSettle(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	logger, _ := zap.NewProduction()

	repo, ts, err := getDeps()
	require.NoError(t, err)

	gateway := mock.NewMockPaymentGateway(mockCtrl)
	gateway.EXPECT().CreateCharge(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, order *domain.Order) (*domain.Charge, error) {
			return &domain.Charge{
				OrderID:   order.ID,
				Reference: fmt.Sprintf("ref-%d", order.ID),
				Code:      fmt.Sprintf("RIFA-%d-db", order.ID),
				ExpiresAt: order.ExpiresAt,
			}, nil
		}).AnyTimes()

	s, err := service.NewService(repo, ts, gateway, nil, nil, logger)
	require.NoError(t, err)

	ctx := context.Background()

	buyer, err := s.RegisterUser(ctx, &domain.User{Login: "buyer", Password: "test"})
	require.NoError(t, err)

	raffle, err := s.CreateRaffle(ctx, &domain.Raffle{
		Title:          "db raffle",
		PricePerNumber: decimal.MustParse("5.00"),
		TotalNumbers:   10,
	})
	require.NoError(t, err)

	order, err := s.Reserve(ctx, raffle.ID, 3, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusReserved, order.Status)
	assert.Equal(t, []int{1, 2, 3}, order.NumberValues)
	assert.Equal(t, 0, order.TotalAmount.Cmp(decimal.MustParse("15.00")))

	available, err := s.AvailableCount(ctx, raffle.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, available)

	first, err := s.GenerateCharge(ctx, order.ID)
	require.NoError(t, err)
	second, err := s.GenerateCharge(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Reference, second.Reference)

	require.NoError(t, s.ConfirmPayment(ctx, order.ID))

	err = s.ConfirmPayment(ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrOrderFinalized)

	stats, err := s.GetRaffle(ctx, raffle.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.SoldCount)
	assert.Equal(t, 0, stats.RevenueTotal.Cmp(decimal.MustParse("15.00")))
	assert.Equal(t, 1, stats.ParticipantCount)

	sold, err := repo.CountNumbers(ctx, raffle.ID, domain.NumberStatusSold)
	require.NoError(t, err)
	assert.Equal(t, 3, sold)
}

func TestServiceDB_ConcurrentReserve(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	logger, _ := zap.NewProduction()

	repo, ts, err := getDeps()
	require.NoError(t, err)

	gateway := mock.NewMockPaymentGateway(mockCtrl)
	s, err := service.NewService(repo, ts, gateway, nil, nil, logger)
	require.NoError(t, err)

	ctx := context.Background()

	raffle, err := s.CreateRaffle(ctx, &domain.Raffle{
		Title:          "contended raffle",
		PricePerNumber: decimal.MustParse("1.00"),
		TotalNumbers:   10,
	})
	require.NoError(t, err)

	buyers := make([]*domain.User, 2)
	for i := range buyers {
		buyers[i], err = s.RegisterUser(ctx, &domain.User{
			Login:    fmt.Sprintf("contender%d", i),
			Password: "test",
		})
		require.NoError(t, err)
	}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Reserve(ctx, raffle.ID, 6, buyers[i].ID)
		}(i)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			failures++
			var insufficient *domain.InsufficientNumbersError
			require.ErrorAs(t, err, &insufficient)
			assert.Equal(t, 4, insufficient.Available)
		}
	}
	assert.Equal(t, 1, failures)

	available, err := s.AvailableCount(ctx, raffle.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, available)
}

func TestServiceDB_SweepReclaim(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	logger, _ := zap.NewProduction()

	repo, ts, err := getDeps()
	require.NoError(t, err)

	gateway := mock.NewMockPaymentGateway(mockCtrl)
	s, err := service.NewService(repo, ts, gateway, nil, nil, logger)
	require.NoError(t, err)

	ctx := context.Background()

	raffle, err := s.CreateRaffle(ctx, &domain.Raffle{
		Title:          "sweep raffle",
		PricePerNumber: decimal.MustParse("2.50"),
		TotalNumbers:   8,
	})
	require.NoError(t, err)

	buyer, err := s.RegisterUser(ctx, &domain.User{Login: "sweeper", Password: "test"})
	require.NoError(t, err)

	order, err := s.Reserve(ctx, raffle.ID, 5, buyer.ID)
	require.NoError(t, err)

	// push the hold into the past so the sweep sees it as due
	db, err := storage.NewDBStorage(ctx, &config.Database{DSN: dbtest.DSN})
	require.NoError(t, err)
	_, err = db.Exec(ctx, `update orders set expires_at = $1 where id = $2`,
		time.Now().Add(-time.Minute), order.ID)
	require.NoError(t, err)

	reclaimed, err := s.ExpireDueOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, reclaimed)

	expired, err := s.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusExpired, expired.Status)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, expired.NumberValues)

	available, err := s.AvailableCount(ctx, raffle.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, available)
}
