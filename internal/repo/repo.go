package repo

import (
	"context"
	"errors"
	"time"

	"collabrio-backend/internal/apperrors"
	"collabrio-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListOptions narrows a member's board listing. PageSize 0 returns every match.
type ListOptions struct {
	Status      models.BoardStatus
	Page        int
	PageSize    int
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

const (
	DefaultPageSize = 6
	MaxPageSize     = 100
)

// Normalize applies paging defaults and caps.
func (o ListOptions) Normalize() ListOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PageSize < 0 {
		o.PageSize = DefaultPageSize
	}
	if o.PageSize > MaxPageSize {
		o.PageSize = MaxPageSize
	}
	return o
}

type BoardRepoInterface interface {
	CreateBoard(ctx context.Context, board *models.Board) (uuid.UUID, error)
	GetBoard(ctx context.Context, id uuid.UUID) (*models.Board, error)
	ListBoardsForMember(ctx context.Context, userID string, opts ListOptions) ([]models.Board, int64, error)
	UpdateBoard(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	SetMembers(ctx context.Context, id uuid.UUID, name string, members []models.Member) error
	UpdateDerived(ctx context.Context, id uuid.UUID, completion int, status models.BoardStatus) error
	AppendDocuments(ctx context.Context, id uuid.UUID, docs []models.Document) error
	RemoveDocument(ctx context.Context, id uuid.UUID, path string) (*models.Document, error)
	DeleteBoard(ctx context.Context, id uuid.UUID) error
}

type TaskRepoInterface interface {
	CreateTask(ctx context.Context, task *models.Task) (uuid.UUID, error)
	GetTask(ctx context.Context, boardID, taskID uuid.UUID) (*models.Task, error)
	ListTasksByBoard(ctx context.Context, boardID uuid.UUID) ([]models.Task, error)
	UpdateTitle(ctx context.Context, boardID, taskID uuid.UUID, title string, at time.Time) error
	UpdateStatus(ctx context.Context, boardID, taskID uuid.UUID, status models.TaskStatus, at time.Time) error
	UpdateChecklist(ctx context.Context, boardID, taskID uuid.UUID, items []models.ChecklistItem, at time.Time) error
	DeleteTask(ctx context.Context, boardID, taskID uuid.UUID) error
	DeleteTasksByBoard(ctx context.Context, boardID uuid.UUID) error
}

type UserRepoInterface interface {
	UpsertUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

func readErr(err error, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(notFoundMsg)
	}
	return apperrors.Wrap(apperrors.KindInternal, "Store read failed", err)
}

func writeErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.StoreWrite(msg, err)
}
