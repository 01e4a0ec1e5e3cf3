package handlers

import (
	"collabrio-backend/internal/api/middleware"
	"collabrio-backend/internal/models"
	"collabrio-backend/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type TaskHandler struct {
	tasks *services.TaskService
}

func NewTaskHandler(tasks *services.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

func boardAndTask(c *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	boardID, err := uuidParam(c, "boardId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	taskID, err := uuidParam(c, "taskId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return boardID, taskID, nil
}

// function to get the column view of a board
func (h *TaskHandler) GetTasks(c *fiber.Ctx) error {
	boardID, err := uuidParam(c, "boardId")
	if err != nil {
		return err
	}
	res, err := h.tasks.Columns(c.UserContext(), middleware.UserID(c), boardID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(res)
}

func (h *TaskHandler) CreateTask(c *fiber.Ctx) error {
	boardID, err := uuidParam(c, "boardId")
	if err != nil {
		return err
	}
	var dto struct {
		Title  string `json:"title"`
		Status string `json:"status"`
	}
	if err := c.BodyParser(&dto); err != nil {
		return badBody(c)
	}
	task, err := h.tasks.Create(c.UserContext(), middleware.UserID(c), boardID, dto.Title, models.TaskStatus(dto.Status))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"task": task,
	})
}

func (h *TaskHandler) UpdateTask(c *fiber.Ctx) error {
	boardID, taskID, err := boardAndTask(c)
	if err != nil {
		return err
	}
	var dto struct {
		Title string `json:"title"`
	}
	if err := c.BodyParser(&dto); err != nil {
		return badBody(c)
	}
	task, err := h.tasks.UpdateTitle(c.UserContext(), middleware.UserID(c), boardID, taskID, dto.Title)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"task": task,
	})
}

func (h *TaskHandler) DeleteTask(c *fiber.Ctx) error {
	boardID, taskID, err := boardAndTask(c)
	if err != nil {
		return err
	}
	if err := h.tasks.Delete(c.UserContext(), middleware.UserID(c), boardID, taskID); err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Task deleted successfully",
	})
}

// function to move a task between kanban columns
func (h *TaskHandler) MoveTask(c *fiber.Ctx) error {
	boardID, taskID, err := boardAndTask(c)
	if err != nil {
		return err
	}
	var dto struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := c.BodyParser(&dto); err != nil {
		return badBody(c)
	}
	res, err := h.tasks.MoveTask(c.UserContext(), middleware.UserID(c), boardID, taskID, models.TaskStatus(dto.From), models.TaskStatus(dto.To))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(res)
}

func (h *TaskHandler) AddChecklistItem(c *fiber.Ctx) error {
	boardID, taskID, err := boardAndTask(c)
	if err != nil {
		return err
	}
	var dto struct {
		Label string `json:"label"`
	}
	if err := c.BodyParser(&dto); err != nil {
		return badBody(c)
	}
	task, err := h.tasks.AddChecklistItem(c.UserContext(), middleware.UserID(c), boardID, taskID, dto.Label)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"task": task,
	})
}

func (h *TaskHandler) ToggleChecklistItem(c *fiber.Ctx) error {
	boardID, taskID, err := boardAndTask(c)
	if err != nil {
		return err
	}
	task, err := h.tasks.ToggleChecklistItem(c.UserContext(), middleware.UserID(c), boardID, taskID, c.Params("itemId"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"task": task,
	})
}

func (h *TaskHandler) RemoveChecklistItem(c *fiber.Ctx) error {
	boardID, taskID, err := boardAndTask(c)
	if err != nil {
		return err
	}
	task, err := h.tasks.RemoveChecklistItem(c.UserContext(), middleware.UserID(c), boardID, taskID, c.Params("itemId"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"task": task,
	})
}
