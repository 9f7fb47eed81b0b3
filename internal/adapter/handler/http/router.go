package http

import (
	"github.com/gin-gonic/gin"
	"github.com/teixeiranog/rifastatus/internal/core/port"
)

type Router struct {
	*gin.Engine
}

func NewRouter(
	tokenService port.TokenService,
	userHandler *UserHandler,
	raffleHandler *RaffleHandler,
	orderHandler *OrderHandler,
	webhookHandler *WebhookHandler) (*Router, error) {

	router := gin.New()

	api := router.Group("/api")
	{
		user := api.Group("/user")
		{
			user.POST("/register", userHandler.RegisterUser)
			user.POST("/login", userHandler.LoginUser)
		}

		raffles := api.Group("/raffles")
		{
			raffles.POST("", raffleHandler.CreateRaffle)
			raffles.GET("/:raffle", raffleHandler.GetRaffle)
			raffles.GET("/:raffle/available", raffleHandler.AvailableCount)

			reserve := raffles.Group("/:raffle/orders")
			{
				reserve.Use(authCheck(tokenService))
				reserve.POST("", orderHandler.Reserve)
			}
		}

		orders := api.Group("/orders")
		{
			orders.Use(authCheck(tokenService))
			orders.GET("", orderHandler.ListOrdersByBuyer)
			orders.GET("/:order", orderHandler.GetOrder)
			orders.GET("/:order/wait", orderHandler.AwaitSettlement)
			orders.POST("/:order/charge", orderHandler.GenerateCharge)
			orders.POST("/:order/cancel", orderHandler.Cancel)
		}

		api.POST("/payments/confirm", webhookHandler.ConfirmPayment)
	}

	return &Router{router}, nil
}

// Serve starts the HTTP server
func (r *Router) Serve(listenAddr string) error {
	return r.Run(listenAddr)
}
