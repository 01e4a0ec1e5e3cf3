package repo

import (
	"context"
	"time"

	"collabrio-backend/internal/apperrors"
	"collabrio-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskRepo struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) TaskRepoInterface {
	return &TaskRepo{db: db}
}

func (r *TaskRepo) CreateTask(ctx context.Context, task *models.Task) (uuid.UUID, error) {
	id := uuid.New()
	now := time.Now()
	task.ID = id
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Checklist == nil {
		task.Checklist = []models.ChecklistItem{}
	}
	err := r.db.WithContext(ctx).Create(task).Error
	return id, writeErr(err, "Failed to add task")
}

func (r *TaskRepo) GetTask(ctx context.Context, boardID, taskID uuid.UUID) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).Where("id = ? AND board_id = ?", taskID, boardID).First(&task).Error
	if err != nil {
		return nil, readErr(err, "Task not found")
	}
	return &task, nil
}

// ListTasksByBoard returns every task of the board in creation order.
func (r *TaskRepo) ListTasksByBoard(ctx context.Context, boardID uuid.UUID) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.WithContext(ctx).Where("board_id = ?", boardID).Order("created_at ASC").Find(&tasks).Error
	if err != nil {
		return nil, readErr(err, "")
	}
	return tasks, nil
}

func (r *TaskRepo) UpdateTitle(ctx context.Context, boardID, taskID uuid.UUID, title string, at time.Time) error {
	return r.update(ctx, boardID, taskID, map[string]interface{}{"title": title, "updated_at": at}, "Failed to update task")
}

func (r *TaskRepo) UpdateStatus(ctx context.Context, boardID, taskID uuid.UUID, status models.TaskStatus, at time.Time) error {
	if !status.Valid() {
		return apperrors.New(apperrors.KindInvalidStatus, "Invalid task status")
	}
	return r.update(ctx, boardID, taskID, map[string]interface{}{"status": status, "updated_at": at}, "Failed to move task")
}

func (r *TaskRepo) UpdateChecklist(ctx context.Context, boardID, taskID uuid.UUID, items []models.ChecklistItem, at time.Time) error {
	return r.update(ctx, boardID, taskID, map[string]interface{}{
		"checklist":  models.Checklist(items),
		"updated_at": at,
	}, "Failed to update checklist")
}

func (r *TaskRepo) update(ctx context.Context, boardID, taskID uuid.UUID, fields map[string]interface{}, msg string) error {
	res := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND board_id = ?", taskID, boardID).
		Updates(fields)
	if res.Error != nil {
		return writeErr(res.Error, msg)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("Task not found")
	}
	return nil
}

func (r *TaskRepo) DeleteTask(ctx context.Context, boardID, taskID uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ? AND board_id = ?", taskID, boardID).Delete(&models.Task{})
	if res.Error != nil {
		return writeErr(res.Error, "Failed to delete task")
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("Task not found")
	}
	return nil
}

func (r *TaskRepo) DeleteTasksByBoard(ctx context.Context, boardID uuid.UUID) error {
	err := r.db.WithContext(ctx).Where("board_id = ?", boardID).Delete(&models.Task{}).Error
	return writeErr(err, "Failed to delete board tasks")
}
