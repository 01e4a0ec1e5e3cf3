package routes

import (
	v1 "collabrio-backend/internal/api/routes/v1"

	"github.com/gofiber/fiber/v2"
)

func Register(app *fiber.App, deps v1.Deps) {
	// Local blob store downloads
	if deps.FilesDir != "" {
		app.Static("/files", deps.FilesDir)
	}

	// API v1 group
	api := app.Group("/api")
	v1Group := api.Group("/v1")

	// Register v1 routes
	v1.RegisterRoutes(v1Group, deps)
}
