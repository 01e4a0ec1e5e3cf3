package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"collabrio-backend/internal/apperrors"
	"collabrio-backend/internal/libraries"
	"collabrio-backend/internal/models"
	"collabrio-backend/internal/repo"

	"github.com/google/uuid"
)

type ReportFormat string

const (
	FormatPDF  ReportFormat = "pdf"
	FormatXLSX ReportFormat = "xlsx"
)

var reportHeaders = []string{"Board Name", "Created Date", "Deadline", "Description", "Tasks", "Status", "Completion"}

var reportWidths = []float64{40, 28, 28, 50, 65, 30, 26}

type ReportService struct {
	boards repo.BoardRepoInterface
	tasks  repo.TaskRepoInterface
	users  repo.UserRepoInterface
}

func NewReportService(boards repo.BoardRepoInterface, tasks repo.TaskRepoInterface, users repo.UserRepoInterface) *ReportService {
	return &ReportService{boards: boards, tasks: tasks, users: users}
}

// Report is a rendered-on-demand table plus the file name it should be saved under.
type Report struct {
	FileName string
	Table    libraries.ReportTable
}

func (r *Report) Render(w io.Writer, format ReportFormat) error {
	switch format {
	case FormatPDF:
		return libraries.RenderPDF(w, r.Table)
	case FormatXLSX:
		return libraries.RenderXLSX(w, r.Table)
	}
	return apperrors.Validation("Unsupported report format")
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "N/A"
	}
	return t.Format(dateLayout)
}

// tasksCell groups task titles by column; empty columns are left out.
func tasksCell(tasks []models.Task) string {
	var groups []string
	for _, col := range models.Columns {
		var titles []string
		for _, t := range tasks {
			if t.Status == col {
				titles = append(titles, "- "+t.Title)
			}
		}
		if len(titles) == 0 {
			continue
		}
		groups = append(groups, strings.ToUpper(string(col))+":\n"+strings.Join(titles, "\n"))
	}
	if len(groups) == 0 {
		return "No tasks"
	}
	return strings.Join(groups, "\n\n")
}

func (s *ReportService) row(ctx context.Context, b *models.Board) ([]string, error) {
	tasks, err := s.tasks.ListTasksByBoard(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	created := b.CreatedAt
	return []string{
		orDefault(b.Name, "Untitled Board"),
		formatDate(&created),
		formatDate(b.Deadline),
		orDefault(b.Description, "No description"),
		tasksCell(tasks),
		orDefault(string(b.Status), "No status"),
		fmt.Sprintf("%d%%", b.CompletionPercentage),
	}, nil
}

func (s *ReportService) employee(ctx context.Context, userID string) models.Member {
	return actorMember(ctx, s.users, userID)
}

// BoardReport covers a single board; the caller is reported as the employee.
func (s *ReportService) BoardReport(ctx context.Context, userID string, boardID uuid.UUID) (*Report, error) {
	board, err := memberBoard(ctx, s.boards, boardID, userID)
	if err != nil {
		return nil, err
	}
	row, err := s.row(ctx, board)
	if err != nil {
		return nil, err
	}
	emp := s.employee(ctx, userID)
	return &Report{
		FileName: orDefault(board.Name, "Board") + "-report",
		Table: libraries.ReportTable{
			Title:   "Board Report: " + orDefault(board.Name, "Untitled Board"),
			Lines:   []string{"Employee: " + orDefault(emp.Name, "N/A"), "Email: " + orDefault(emp.Email, "N/A")},
			Headers: reportHeaders,
			Widths:  reportWidths,
			Rows:    [][]string{row},
		},
	}, nil
}

type MemberReportInput struct {
	From  time.Time
	To    time.Time
	Query string
}

// MemberReport lists a member's boards created within [From, To] (whole days).
// Boards the caller does not share with the member are left out.
func (s *ReportService) MemberReport(ctx context.Context, callerID, memberID string, in MemberReportInput) (*Report, error) {
	if in.From.IsZero() || in.To.IsZero() {
		return nil, apperrors.Validation("from and to dates are required")
	}
	if in.To.Before(in.From) {
		return nil, apperrors.Validation("to must not be before from")
	}
	member, err := s.users.GetUser(ctx, memberID)
	if err != nil {
		return nil, err
	}

	from := in.From.UTC()
	to := in.To.UTC().Add(24*time.Hour - time.Nanosecond)
	boards, _, err := s.boards.ListBoardsForMember(ctx, memberID, repo.ListOptions{CreatedFrom: &from, CreatedTo: &to})
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(in.Query))
	rows := [][]string{}
	for i := range boards {
		b := &boards[i]
		if callerID != memberID && !b.HasMember(callerID) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(b.Name), q) {
			continue
		}
		row, err := s.row(ctx, b)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	name := member.DisplayName()
	return &Report{
		FileName: fmt.Sprintf("%s_%s-%s_report", orDefault(name, member.ID), in.From.Format("02Jan2006"), in.To.Format("02Jan2006")),
		Table: libraries.ReportTable{
			Title:   fmt.Sprintf("Employee Boards Report (%s - %s)", in.From.Format(dateLayout), in.To.Format(dateLayout)),
			Lines:   []string{"Name: " + orDefault(name, "N/A"), "Email: " + orDefault(member.Email, "N/A")},
			Headers: reportHeaders,
			Widths:  reportWidths,
			Rows:    rows,
		},
	}, nil
}
