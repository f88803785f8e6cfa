package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/kelvinjuma/invest_portal/handlers"
	"github.com/kelvinjuma/invest_portal/middleware"
)

func UploadRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Post("/uploads/signature", middleware.Protected(), handlers.GenerateProofUploadSignature)
}
