package handlers

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"collabrio-backend/internal/api/middleware"
	"collabrio-backend/internal/apperrors"
	"collabrio-backend/internal/services"

	"github.com/gofiber/fiber/v2"
)

const (
	mimePDF  = "application/pdf"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type ReportHandler struct {
	reports *services.ReportService
}

func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func send(c *fiber.Ctx, report *services.Report, format services.ReportFormat) error {
	var buf bytes.Buffer
	if err := report.Render(&buf, format); err != nil {
		return err
	}
	contentType := mimePDF
	if format == services.FormatXLSX {
		contentType = mimeXLSX
	}
	name := strings.NewReplacer(`"`, "", "/", "_", "\\", "_").Replace(report.FileName)
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s.%s"`, name, format))
	return c.Status(fiber.StatusOK).Send(buf.Bytes())
}

// function to download the report of one board
func (h *ReportHandler) BoardReport(format services.ReportFormat) fiber.Handler {
	return func(c *fiber.Ctx) error {
		boardID, err := uuidParam(c, "boardId")
		if err != nil {
			return err
		}
		report, err := h.reports.BoardReport(c.UserContext(), middleware.UserID(c), boardID)
		if err != nil {
			return err
		}
		return send(c, report, format)
	}
}

// function to download a member's boards created between ?from and ?to (YYYY-MM-DD)
func (h *ReportHandler) MemberReport(format services.ReportFormat) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, err := time.Parse(time.DateOnly, c.Query("from"))
		if err != nil {
			return apperrors.Validation("from must be a YYYY-MM-DD date")
		}
		to, err := time.Parse(time.DateOnly, c.Query("to"))
		if err != nil {
			return apperrors.Validation("to must be a YYYY-MM-DD date")
		}
		report, err := h.reports.MemberReport(c.UserContext(), middleware.UserID(c), c.Params("userId"), services.MemberReportInput{
			From:  from,
			To:    to,
			Query: c.Query("q"),
		})
		if err != nil {
			return err
		}
		return send(c, report, format)
	}
}
