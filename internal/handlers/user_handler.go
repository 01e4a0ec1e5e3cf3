package handlers

import (
	"strings"

	"collabrio-backend/internal/api/middleware"
	"collabrio-backend/internal/apperrors"
	"collabrio-backend/internal/models"
	"collabrio-backend/internal/repo"

	"github.com/gofiber/fiber/v2"
)

// for simple crud operations service layer is not required
type UserHandler struct {
	repo repo.UserRepoInterface
}

func NewUserHandler(repo repo.UserRepoInterface) *UserHandler {
	return &UserHandler{repo: repo}
}

func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.repo.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"users": users,
	})
}

func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	user, err := h.repo.GetUser(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"user": user,
	})
}

// function to create or refresh the caller's profile
func (h *UserHandler) UpsertMe(c *fiber.Ctx) error {
	var dto struct {
		FirstName string `json:"firstName"`
		Surname   string `json:"surname"`
		Email     string `json:"email"`
	}
	if err := c.BodyParser(&dto); err != nil {
		return badBody(c)
	}
	if strings.TrimSpace(dto.Email) == "" || !strings.Contains(dto.Email, "@") {
		return apperrors.Validation("A valid email is required")
	}
	user := &models.User{
		ID:        middleware.UserID(c),
		FirstName: strings.TrimSpace(dto.FirstName),
		Surname:   strings.TrimSpace(dto.Surname),
		Email:     dto.Email,
	}
	if err := h.repo.UpsertUser(c.UserContext(), user); err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"user": user,
	})
}

func (h *UserHandler) LookupByEmail(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return apperrors.Validation("email is required")
	}
	user, err := h.repo.GetUserByEmail(c.UserContext(), email)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"user": user,
	})
}
