package kanban

import (
	"collabrio-backend/internal/apperrors"
	"collabrio-backend/internal/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// View is the in-memory column layout of one board. Within a column tasks keep
// insertion order; a moved task is appended to the end of its new column.
type View struct {
	BoardID uuid.UUID                           `json:"boardId"`
	Columns map[models.TaskStatus][]models.Task `json:"columns"`
	// Unplaced counts tasks whose stored status is not a known column.
	Unplaced int `json:"unplaced,omitempty"`
}

// NewView places every task in its column. Tasks with an unknown status are
// skipped with a warning rather than misfiled.
func NewView(boardID uuid.UUID, tasks []models.Task) *View {
	v := &View{BoardID: boardID, Columns: make(map[models.TaskStatus][]models.Task, len(models.Columns))}
	for _, c := range models.Columns {
		v.Columns[c] = []models.Task{}
	}
	for _, t := range tasks {
		if !t.Status.Valid() {
			log.WithFields(log.Fields{"board_id": boardID, "task_id": t.ID, "status": t.Status}).
				Warn("Invalid task status")
			v.Unplaced++
			continue
		}
		v.Columns[t.Status] = append(v.Columns[t.Status], t)
	}
	return v
}

// Tasks flattens the view in column order.
func (v *View) Tasks() []models.Task {
	var out []models.Task
	for _, c := range models.Columns {
		out = append(out, v.Columns[c]...)
	}
	return out
}

// Find returns the task and its index within column.
func (v *View) Find(column models.TaskStatus, taskID uuid.UUID) (models.Task, int, bool) {
	for i, t := range v.Columns[column] {
		if t.ID == taskID {
			return t, i, true
		}
	}
	return models.Task{}, -1, false
}

// PersistFunc writes the new status of a task to the store.
type PersistFunc func(task models.Task, target models.TaskStatus) (models.Task, error)

// Move transfers taskID from source to target. It returns moved=false for a
// same-column move, which performs no write. The view is only changed after
// persist succeeds.
func (v *View) Move(taskID uuid.UUID, source, target models.TaskStatus, persist PersistFunc) (moved bool, err error) {
	if !target.Valid() {
		return false, apperrors.New(apperrors.KindInvalidColumn, "Invalid target column")
	}
	if source == target {
		return false, nil
	}
	if !source.Valid() {
		return false, apperrors.New(apperrors.KindInvalidColumn, "Invalid source column")
	}

	task, idx, ok := v.Find(source, taskID)
	if !ok {
		return false, apperrors.NotFound("Task not found in source column")
	}

	updated, err := persist(task, target)
	if err != nil {
		return false, err
	}
	updated.Status = target

	col := v.Columns[source]
	v.Columns[source] = append(col[:idx:idx], col[idx+1:]...)
	v.Columns[target] = append(v.Columns[target], updated)
	return true, nil
}
