package handlers

import (
	"collabrio-backend/internal/api/middleware"
	"collabrio-backend/internal/services"

	"github.com/gofiber/fiber/v2"
)

type DocumentHandler struct {
	documents *services.DocumentService
}

func NewDocumentHandler(documents *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// function to upload one or more files from the "files" form field
func (h *DocumentHandler) UploadDocuments(c *fiber.Ctx) error {
	boardID, err := uuidParam(c, "boardId")
	if err != nil {
		return err
	}
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid form data",
		})
	}
	var files []services.FileUpload
	for _, fh := range form.File["files"] {
		files = append(files, services.FromMultipart(fh))
	}

	docs, err := h.documents.Upload(c.UserContext(), middleware.UserID(c), boardID, files)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"documents": docs,
	})
}

func (h *DocumentHandler) RemoveDocument(c *fiber.Ctx) error {
	boardID, err := uuidParam(c, "boardId")
	if err != nil {
		return err
	}
	var dto struct {
		Path string `json:"path"`
	}
	if err := c.BodyParser(&dto); err != nil || dto.Path == "" {
		return badBody(c)
	}
	if err := h.documents.Remove(c.UserContext(), middleware.UserID(c), boardID, dto.Path); err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Document removed successfully",
	})
}
