package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TaskStatus doubles as the kanban column a task is placed in.
type TaskStatus string

const (
	StatusTodo   TaskStatus = "todo"
	StatusDoing  TaskStatus = "doing"
	StatusOnHold TaskStatus = "onHold"
	StatusDone   TaskStatus = "done"
)

// Columns lists the kanban columns in display order.
var Columns = []TaskStatus{StatusTodo, StatusDoing, StatusOnHold, StatusDone}

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusDoing, StatusOnHold, StatusDone:
		return true
	}
	return false
}

type ChecklistItem struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Completed bool   `json:"completed"`
}

// Checklist is the stored form of a task's checklist.
type Checklist = datatypes.JSONSlice[ChecklistItem]

type Task struct {
	ID        uuid.UUID  `gorm:"type:uuid;primarykey" json:"id"`
	BoardID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"boardId"`
	Title     string     `gorm:"not null" json:"title"`
	Status    TaskStatus `gorm:"not null;default:'todo'" json:"status"`
	Checklist Checklist  `json:"checklist"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}
