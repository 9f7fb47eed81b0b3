package service

import (
	"context"
	"errors"

	"github.com/teixeiranog/rifastatus/internal/core/domain"
	"github.com/teixeiranog/rifastatus/internal/core/port"
	"github.com/teixeiranog/rifastatus/internal/core/utils"
	"go.uber.org/zap"
)

type Service struct {
	repo         port.Repository
	tokenService port.TokenService
	gateway      port.PaymentGateway
	notifier     port.OrderNotifier
	cache        port.InventoryCache
	logger       *zap.Logger

	hub       *settlementHub
	finalized *finalizedSet
}

// NewService wires the engine. notifier and cache may be nil; the engine
// then runs without external notifications and without the availability
// cache.
func NewService(repo port.Repository, tokenService port.TokenService,
	gateway port.PaymentGateway, notifier port.OrderNotifier,
	cache port.InventoryCache, logger *zap.Logger) (*Service, error) {
	return &Service{
		repo:         repo,
		tokenService: tokenService,
		gateway:      gateway,
		notifier:     notifier,
		cache:        cache,
		logger:       logger,
		hub:          newSettlementHub(),
		finalized:    newFinalizedSet(),
	}, nil
}

func (s *Service) RegisterUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	exUser, err := s.repo.GetUserByLogin(ctx, user.Login)
	if err != nil && !errors.Is(err, domain.ErrDataNotFound) {
		s.logger.Error("Get user", zap.Error(err))
		return nil, domain.ErrInternal
	}

	if exUser != nil {
		return nil, domain.ErrConflictingData
	}

	newUser, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, domain.ErrConflictingData) {
			return nil, domain.ErrConflictingData
		}
		s.logger.Error("Create user", zap.Error(err))
		return nil, domain.ErrInternal
	}

	return newUser, nil
}

func (s *Service) LoginUser(ctx context.Context, login string, password string) (string, error) {
	user, err := s.repo.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, domain.ErrDataNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", domain.ErrInternal
	}

	err = utils.ComparePassword(password, user.Password)
	if err != nil {
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.tokenService.CreateToken(user)
	if err != nil {
		s.logger.Error("Create token", zap.Error(err))
		return "", domain.ErrTokenCreation
	}

	return token, nil
}

// CreateRaffle persists the raffle together with its full number set
// (1..TotalNumbers, all available) in one transaction. Numbers exist from
// raffle creation on; nothing else ever inserts them.
func (s *Service) CreateRaffle(ctx context.Context, raffle *domain.Raffle) (*domain.Raffle, error) {
	if raffle.Status == "" {
		raffle.Status = domain.RaffleStatusActive
	}

	newRaffle, err := s.repo.CreateRaffle(ctx, raffle)
	if err != nil {
		if errors.Is(err, domain.ErrConflictingData) {
			return nil, domain.ErrConflictingData
		}
		s.logger.Error("Create raffle", zap.Error(err))
		return nil, domain.ErrInternal
	}
	return newRaffle, nil
}

func (s *Service) GetRaffle(ctx context.Context, raffleID uint64) (*domain.Raffle, error) {
	raffle, err := s.repo.ReadRaffle(ctx, raffleID)
	if err != nil {
		if errors.Is(err, domain.ErrDataNotFound) {
			return nil, domain.ErrRaffleNotFound
		}
		s.logger.Error("Read raffle", zap.Error(err))
		return nil, err
	}
	return raffle, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID uint64) (*domain.Order, error) {
	order, err := s.repo.ReadOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrDataNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		s.logger.Error("Read order", zap.Error(err))
		return nil, err
	}
	return order, nil
}

func (s *Service) OrdersByBuyer(ctx context.Context, buyerID uint64) ([]*domain.Order, error) {
	list, err := s.repo.ListOrdersByBuyer(ctx, buyerID)
	if err != nil {
		s.logger.Error("Get orders for buyer", zap.Error(err))
		return nil, err
	}
	return list, nil
}

func (s *Service) invalidateAvailability(ctx context.Context, raffleID uint64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAvailableCount(ctx, raffleID); err != nil {
		s.logger.Warn("Invalidate availability cache", zap.Uint64("raffle", raffleID), zap.Error(err))
	}
}
