package v1

import (
	"collabrio-backend/internal/api/middleware"
	"collabrio-backend/internal/libraries"
	"collabrio-backend/internal/repo"
	"collabrio-backend/internal/services"

	"github.com/gofiber/fiber/v2"
)

// Deps is everything the v1 handlers need.
type Deps struct {
	Auth      *middleware.Auth
	Users     repo.UserRepoInterface
	Boards    *services.BoardService
	Tasks     *services.TaskService
	Documents *services.DocumentService
	Reports   *services.ReportService
	Hub       *libraries.Hub
	FilesDir  string
}

func RegisterRoutes(r fiber.Router, deps Deps) {
	registerHealth(r)

	// everything below needs a bearer token
	r.Use(deps.Auth.Handler())

	registerUsers(r, deps)
	registerBoard(r, deps)
	registerTasks(r, deps)
	registerDocuments(r, deps)
	registerReports(r, deps)
	registerWebSocket(r, deps)
}
