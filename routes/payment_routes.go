package routes

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/kelvinjuma/invest_portal/handlers"
	"github.com/kelvinjuma/invest_portal/middleware"
)

func PaymentRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	payments := api.Group("/payments", middleware.Protected())
	payments.Post("", handlers.SubmitPayment)
	payments.Get("", handlers.ListMyPayments)
	payments.Get("/:paymentId", handlers.GetPayment)

	api.Get("/commissions", middleware.Protected(), handlers.ListMyCommissions)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	api.Get("/ws", websocket.New(handlers.ServeWs))
}
