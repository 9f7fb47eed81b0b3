package main

import (
	"context"
	"fmt"

	"github.com/teixeiranog/rifastatus/internal/adapter/auth"
	"github.com/teixeiranog/rifastatus/internal/adapter/broker"
	"github.com/teixeiranog/rifastatus/internal/adapter/cache"
	"github.com/teixeiranog/rifastatus/internal/adapter/config"
	"github.com/teixeiranog/rifastatus/internal/adapter/gateway"
	"github.com/teixeiranog/rifastatus/internal/adapter/handler/http"
	"github.com/teixeiranog/rifastatus/internal/adapter/logger"
	"github.com/teixeiranog/rifastatus/internal/adapter/storage"
	"github.com/teixeiranog/rifastatus/internal/adapter/storage/repository"
	"github.com/teixeiranog/rifastatus/internal/core/port"
	"github.com/teixeiranog/rifastatus/internal/core/service"
	"go.uber.org/zap"
)

func main() {
	conf, err := config.NewConfig()
	if err != nil {
		fmt.Printf("config error:%s", err)
		return
	}

	log := logger.NewLogger(conf.App)
	if log == nil {
		fmt.Printf("error creating log")
		return
	}
	defer func() {
		err := log.Sync()
		if err != nil {
			fmt.Printf("log error: %s", err)
		}
	}()

	ctx := context.Background()

	db, err := storage.NewDBStorage(ctx, conf.Database)
	if err != nil {
		log.Error("database error", zap.Error(err))
		return
	}
	err = db.RunMigrations()
	if err != nil {
		log.Error("database migration error", zap.Error(err))
		return
	}

	repo, err := repository.NewRepository(db)
	if err != nil {
		log.Error("repository creating error", zap.Error(err))
		return
	}
	tokenService, err := auth.New()
	if err != nil {
		log.Error("token service creating error", zap.Error(err))
		return
	}

	gw, err := gateway.NewClient(conf.Gateway, log.Named("Gateway"))
	if err != nil {
		log.Error("gateway client creating error", zap.Error(err))
		return
	}

	var notifier port.OrderNotifier
	var rabbit *broker.Broker
	if conf.Broker.URL != "" {
		rabbit, err = broker.New(conf.Broker, log.Named("Broker"))
		if err != nil {
			log.Error("broker connect error", zap.Error(err))
			return
		}
		defer rabbit.Close()
		notifier = rabbit
	}

	var availability port.InventoryCache
	if conf.Cache.RedisAddr != "" {
		availability, err = cache.NewAvailabilityCache(ctx, conf.Cache)
		if err != nil {
			log.Error("cache connect error", zap.Error(err))
			return
		}
	}

	svc, err := service.NewService(repo, tokenService, gw, notifier, availability, log.Named("Service"))
	if err != nil {
		log.Error("service creating error", zap.Error(err))
		return
	}

	gw.StartSimulation(ctx, svc, 5)
	if err := gateway.RecallCharges(ctx, repo, gw); err != nil {
		log.Error("charge recall error", zap.Error(err))
		return
	}

	sweeper := service.NewSweeper(svc, conf.Sweeper.Interval, log.Named("Sweeper"))
	go sweeper.Run(ctx)

	if rabbit != nil {
		go func() {
			if err := rabbit.ConsumeConfirmations(ctx, svc); err != nil {
				log.Error("confirmation consumer stopped", zap.Error(err))
			}
		}()
	}

	userHandler, err := http.NewUserHandler(svc)
	if err != nil {
		log.Error("user handler creating error", zap.Error(err))
		return
	}
	raffleHandler, err := http.NewRaffleHandler(svc, log.Named("Raffle handler"))
	if err != nil {
		log.Error("raffle handler creating error", zap.Error(err))
		return
	}
	orderHandler, err := http.NewOrderHandler(svc, log.Named("Order handler"))
	if err != nil {
		log.Error("order handler creating error", zap.Error(err))
		return
	}
	webhookHandler, err := http.NewWebhookHandler(svc, log.Named("Webhook handler"))
	if err != nil {
		log.Error("webhook handler creating error", zap.Error(err))
		return
	}

	r, err := http.NewRouter(tokenService, userHandler, raffleHandler, orderHandler, webhookHandler)
	if err != nil {
		log.Error("router creating error", zap.Error(err))
		return
	}

	err = r.Serve(conf.HTTP.HostString)
	if err != nil {
		log.Error("router serve error", zap.Error(err))
		return
	}
}
