package v1

import (
	"collabrio-backend/internal/handlers"

	"github.com/gofiber/fiber/v2"
)

func registerBoard(r fiber.Router, deps Deps) {
	// Initialize handler
	boardHandler := handlers.NewBoardHandler(deps.Boards)

	// Register routes
	r.Get("/boards", boardHandler.GetAllBoards)
	r.Post("/boards", boardHandler.CreateBoard)
	r.Get("/boards/:boardId", boardHandler.GetBoardByID)
	r.Delete("/boards/:boardId", boardHandler.DeleteBoard)
	r.Put("/boards/:boardId/members", boardHandler.UpdateMembers)
	r.Put("/boards/:boardId/deadline", boardHandler.UpdateDeadline)
}

func registerTasks(r fiber.Router, deps Deps) {
	taskHandler := handlers.NewTaskHandler(deps.Tasks)

	r.Get("/boards/:boardId/tasks", taskHandler.GetTasks)
	r.Post("/boards/:boardId/tasks", taskHandler.CreateTask)
	r.Patch("/boards/:boardId/tasks/:taskId", taskHandler.UpdateTask)
	r.Delete("/boards/:boardId/tasks/:taskId", taskHandler.DeleteTask)
	r.Patch("/boards/:boardId/tasks/:taskId/move", taskHandler.MoveTask)
	r.Post("/boards/:boardId/tasks/:taskId/checklist", taskHandler.AddChecklistItem)
	r.Patch("/boards/:boardId/tasks/:taskId/checklist/:itemId", taskHandler.ToggleChecklistItem)
	r.Delete("/boards/:boardId/tasks/:taskId/checklist/:itemId", taskHandler.RemoveChecklistItem)
}

func registerDocuments(r fiber.Router, deps Deps) {
	documentHandler := handlers.NewDocumentHandler(deps.Documents)

	r.Post("/boards/:boardId/documents", documentHandler.UploadDocuments)
	r.Delete("/boards/:boardId/documents", documentHandler.RemoveDocument)
}
