package services

import (
	"context"
	"strings"
	"time"

	"collabrio-backend/internal/apperrors"
	"collabrio-backend/internal/kanban"
	"collabrio-backend/internal/models"
	"collabrio-backend/internal/repo"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type TaskService struct {
	boards repo.BoardRepoInterface
	tasks  repo.TaskRepoInterface
	bus    *kanban.Bus
	now    Clock
}

func NewTaskService(boards repo.BoardRepoInterface, tasks repo.TaskRepoInterface, bus *kanban.Bus) *TaskService {
	return &TaskService{boards: boards, tasks: tasks, bus: bus, now: time.Now}
}

// BoardTasks is the column view of a board together with its derived fields.
type BoardTasks struct {
	View                 *kanban.View       `json:"view"`
	CompletionPercentage int                `json:"completionPercentage"`
	Status               models.BoardStatus `json:"status"`
}

func (s *TaskService) Columns(ctx context.Context, userID string, boardID uuid.UUID) (*BoardTasks, error) {
	board, err := memberBoard(ctx, s.boards, boardID, userID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListTasksByBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	return &BoardTasks{
		View:                 kanban.NewView(boardID, tasks),
		CompletionPercentage: board.CompletionPercentage,
		Status:               board.Status,
	}, nil
}

func (s *TaskService) publish(ctx context.Context, t kanban.EventType, boardID, taskID uuid.UUID, actorID string) error {
	err := s.bus.Publish(ctx, kanban.Event{Type: t, BoardID: boardID, TaskID: taskID, ActorID: actorID})
	if err != nil {
		log.WithFields(log.Fields{"board_id": boardID, "task_id": taskID, "event": t, "err": err}).Error("Task event handling failed")
	}
	return err
}

func (s *TaskService) Create(ctx context.Context, userID string, boardID uuid.UUID, title string, status models.TaskStatus) (*models.Task, error) {
	if _, err := memberBoard(ctx, s.boards, boardID, userID); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.Validation("Task title is required")
	}
	if status == "" {
		status = models.StatusTodo
	}
	if !status.Valid() {
		return nil, apperrors.New(apperrors.KindInvalidStatus, "Invalid task status")
	}

	now := s.now()
	task := &models.Task{
		BoardID:   boardID,
		Title:     title,
		Status:    status,
		Checklist: models.Checklist{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.tasks.CreateTask(ctx, task); err != nil {
		return nil, err
	}
	return task, s.publish(ctx, kanban.TaskCreated, boardID, task.ID, userID)
}

func (s *TaskService) UpdateTitle(ctx context.Context, userID string, boardID, taskID uuid.UUID, title string) (*models.Task, error) {
	if _, err := memberBoard(ctx, s.boards, boardID, userID); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.Validation("Task title is required")
	}
	task, err := s.tasks.GetTask(ctx, boardID, taskID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.tasks.UpdateTitle(ctx, boardID, taskID, title, now); err != nil {
		return nil, err
	}
	task.Title, task.UpdatedAt = title, now
	return task, s.publish(ctx, kanban.TaskUpdated, boardID, taskID, userID)
}

func (s *TaskService) Delete(ctx context.Context, userID string, boardID, taskID uuid.UUID) error {
	if _, err := memberBoard(ctx, s.boards, boardID, userID); err != nil {
		return err
	}
	if err := s.tasks.DeleteTask(ctx, boardID, taskID); err != nil {
		return err
	}
	return s.publish(ctx, kanban.TaskDeleted, boardID, taskID, userID)
}

// editChecklist applies fn to a copy of the checklist and saves the result.
func (s *TaskService) editChecklist(ctx context.Context, userID string, boardID, taskID uuid.UUID, fn func([]models.ChecklistItem) ([]models.ChecklistItem, error)) (*models.Task, error) {
	if _, err := memberBoard(ctx, s.boards, boardID, userID); err != nil {
		return nil, err
	}
	task, err := s.tasks.GetTask(ctx, boardID, taskID)
	if err != nil {
		return nil, err
	}
	items, err := fn(append([]models.ChecklistItem{}, task.Checklist...))
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.tasks.UpdateChecklist(ctx, boardID, taskID, items, now); err != nil {
		return nil, err
	}
	task.Checklist, task.UpdatedAt = items, now
	return task, s.publish(ctx, kanban.TaskUpdated, boardID, taskID, userID)
}

func (s *TaskService) AddChecklistItem(ctx context.Context, userID string, boardID, taskID uuid.UUID, label string) (*models.Task, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, apperrors.Validation("Checklist label is required")
	}
	return s.editChecklist(ctx, userID, boardID, taskID, func(items []models.ChecklistItem) ([]models.ChecklistItem, error) {
		return append(items, models.ChecklistItem{ID: uuid.NewString(), Label: label}), nil
	})
}

func (s *TaskService) ToggleChecklistItem(ctx context.Context, userID string, boardID, taskID uuid.UUID, itemID string) (*models.Task, error) {
	return s.editChecklist(ctx, userID, boardID, taskID, func(items []models.ChecklistItem) ([]models.ChecklistItem, error) {
		for i := range items {
			if items[i].ID == itemID {
				items[i].Completed = !items[i].Completed
				return items, nil
			}
		}
		return nil, apperrors.NotFound("Checklist item not found")
	})
}

func (s *TaskService) RemoveChecklistItem(ctx context.Context, userID string, boardID, taskID uuid.UUID, itemID string) (*models.Task, error) {
	return s.editChecklist(ctx, userID, boardID, taskID, func(items []models.ChecklistItem) ([]models.ChecklistItem, error) {
		for i := range items {
			if items[i].ID == itemID {
				return append(items[:i:i], items[i+1:]...), nil
			}
		}
		return nil, apperrors.NotFound("Checklist item not found")
	})
}

// MoveResult is returned by MoveTask; Moved is false for same-column moves.
type MoveResult struct {
	BoardTasks
	Moved bool `json:"moved"`
}

// MoveTask moves a task between kanban columns. A same-column move writes
// nothing and publishes nothing.
func (s *TaskService) MoveTask(ctx context.Context, userID string, boardID, taskID uuid.UUID, from, to models.TaskStatus) (*MoveResult, error) {
	if !to.Valid() {
		return nil, apperrors.New(apperrors.KindInvalidColumn, "Invalid target column")
	}
	current, err := s.Columns(ctx, userID, boardID)
	if err != nil {
		return nil, err
	}

	moved, err := current.View.Move(taskID, from, to, func(task models.Task, target models.TaskStatus) (models.Task, error) {
		now := s.now()
		if err := s.tasks.UpdateStatus(ctx, boardID, task.ID, target, now); err != nil {
			return task, err
		}
		task.Status, task.UpdatedAt = target, now
		return task, nil
	})
	if err != nil {
		return nil, err
	}
	result := &MoveResult{BoardTasks: *current, Moved: moved}
	if !moved {
		return result, nil
	}

	log.WithFields(log.Fields{"board_id": boardID, "task_id": taskID, "from": from, "to": to}).Info("Task moved")
	if err := s.publish(ctx, kanban.TaskMoved, boardID, taskID, userID); err != nil {
		return nil, err
	}
	if board, err := s.boards.GetBoard(ctx, boardID); err == nil {
		result.CompletionPercentage = board.CompletionPercentage
		result.Status = board.Status
	}
	return result, nil
}
