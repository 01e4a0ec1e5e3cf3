package v1

import (
	"collabrio-backend/internal/handlers"
	"collabrio-backend/internal/services"

	"github.com/gofiber/fiber/v2"
)

func registerReports(r fiber.Router, deps Deps) {
	reportHandler := handlers.NewReportHandler(deps.Reports)

	r.Get("/boards/:boardId/report.pdf", reportHandler.BoardReport(services.FormatPDF))
	r.Get("/boards/:boardId/report.xlsx", reportHandler.BoardReport(services.FormatXLSX))
	r.Get("/users/:userId/report.pdf", reportHandler.MemberReport(services.FormatPDF))
	r.Get("/users/:userId/report.xlsx", reportHandler.MemberReport(services.FormatXLSX))
}
