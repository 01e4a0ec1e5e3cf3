package v1

import (
	"collabrio-backend/internal/handlers"

	"github.com/gofiber/fiber/v2"
)

func registerUsers(r fiber.Router, deps Deps) {
	userHandler := handlers.NewUserHandler(deps.Users)

	r.Get("/users", userHandler.ListUsers)
	r.Get("/users/me", userHandler.GetMe)
	r.Put("/users/me", userHandler.UpsertMe)
	r.Get("/users/lookup", userHandler.LookupByEmail)
}
