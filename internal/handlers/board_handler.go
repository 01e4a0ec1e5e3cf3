package handlers

import (
	"encoding/json"
	"strings"
	"time"

	"collabrio-backend/internal/api/middleware"
	"collabrio-backend/internal/models"
	"collabrio-backend/internal/repo"
	"collabrio-backend/internal/services"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

type BoardHandler struct {
	boards *services.BoardService
}

func NewBoardHandler(boards *services.BoardService) *BoardHandler {
	return &BoardHandler{boards: boards}
}

type createBoardDTO struct {
	BoardName   string     `json:"boardName"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Deadline    *time.Time `json:"deadline"`
	NoDeadline  bool       `json:"noDeadline"`
	Members     []string   `json:"members"`
}

// function to create a board, from JSON or from a multipart form with a
// "board" JSON field and "files" attachments
func (h *BoardHandler) CreateBoard(c *fiber.Ctx) error {
	var dto createBoardDTO
	var files []services.FileUpload

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid form data",
			})
		}
		values := form.Value["board"]
		if len(values) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "No board data provided",
			})
		}
		if err := json.Unmarshal([]byte(values[0]), &dto); err != nil {
			return badBody(c)
		}
		for _, fh := range form.File["files"] {
			files = append(files, services.FromMultipart(fh))
		}
	} else if err := c.BodyParser(&dto); err != nil {
		return badBody(c)
	}

	res, err := h.boards.Create(c.UserContext(), middleware.UserID(c), services.CreateBoardInput{
		Name:        dto.BoardName,
		Description: dto.Description,
		Priority:    models.Priority(dto.Priority),
		Deadline:    dto.Deadline,
		NoDeadline:  dto.NoDeadline,
		MemberIDs:   dto.Members,
		Files:       files,
	})
	if err != nil {
		return err
	}
	if len(res.Warnings) > 0 {
		log.WithFields(log.Fields{"board_id": res.Board.ID, "warnings": res.Warnings}).Warn("Board created with warnings")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"board":    res.Board,
		"warnings": res.Warnings,
		"message":  "Board created successfully",
	})
}

// function to list the caller's boards
func (h *BoardHandler) GetAllBoards(c *fiber.Ctx) error {
	opts := repo.ListOptions{
		Status:   models.BoardStatus(c.Query("status")),
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("pageSize", repo.DefaultPageSize),
	}
	if opts.PageSize < 1 {
		opts.PageSize = repo.DefaultPageSize
	}
	boards, total, err := h.boards.List(c.UserContext(), middleware.UserID(c), opts)
	if err != nil {
		return err
	}
	opts = opts.Normalize()
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"boards":   boards,
		"total":    total,
		"page":     opts.Page,
		"pageSize": opts.PageSize,
	})
}

func (h *BoardHandler) GetBoardByID(c *fiber.Ctx) error {
	boardID, err := uuidParam(c, "boardId")
	if err != nil {
		return err
	}
	board, err := h.boards.Get(c.UserContext(), middleware.UserID(c), boardID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"board": board,
	})
}

func (h *BoardHandler) DeleteBoard(c *fiber.Ctx) error {
	boardID, err := uuidParam(c, "boardId")
	if err != nil {
		return err
	}
	if err := h.boards.Delete(c.UserContext(), middleware.UserID(c), boardID); err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Board deleted successfully",
	})
}

func (h *BoardHandler) UpdateMembers(c *fiber.Ctx) error {
	boardID, err := uuidParam(c, "boardId")
	if err != nil {
		return err
	}
	var dto struct {
		BoardName string   `json:"boardName"`
		Members   []string `json:"members"`
	}
	if err := c.BodyParser(&dto); err != nil {
		return badBody(c)
	}
	res, err := h.boards.UpdateMembers(c.UserContext(), middleware.UserID(c), boardID, services.UpdateMembersInput{
		Name:      dto.BoardName,
		MemberIDs: dto.Members,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"board":    res.Board,
		"warnings": res.Warnings,
	})
}

// function to set or clear (null) the deadline
func (h *BoardHandler) UpdateDeadline(c *fiber.Ctx) error {
	boardID, err := uuidParam(c, "boardId")
	if err != nil {
		return err
	}
	var dto struct {
		Deadline *time.Time `json:"deadline"`
	}
	if err := c.BodyParser(&dto); err != nil {
		return badBody(c)
	}
	board, err := h.boards.UpdateDeadline(c.UserContext(), middleware.UserID(c), boardID, dto.Deadline)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"board": board,
	})
}
