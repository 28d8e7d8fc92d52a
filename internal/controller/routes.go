package controller

import (
	"github.com/gofiber/fiber/v2"

	"propertylens_backend/internal/middleware"
)

func SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	api.Get("/health", HealthCheck)

	// Model relay
	api.Post("/analyze", Analyze)
	api.Post("/parse-property", middleware.OptionalAuth(), ParseProperty)
	api.Post("/parse-text", ParseText)
	api.Post("/assess-risk", AssessRisk)
	api.Post("/correct-property", CorrectProperty)

	// Accounts
	api.Post("/register", Register)
	api.Post("/login", Login)
	api.Get("/me", middleware.AuthMiddleware(), GetMe)
}
