package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/kelvinjuma/invest_portal/handlers"
	"github.com/kelvinjuma/invest_portal/middleware"
)

func AdminRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(), middleware.AdminRequired())
	admin.Get("/payments/review", handlers.ListReviewQueue)
	admin.Post("/payments/:paymentId/decision", handlers.DecidePayment)
	admin.Get("/audit-logs", handlers.ListAuditLogs)
}
