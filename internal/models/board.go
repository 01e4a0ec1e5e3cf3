package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// BoardStatus is derived from the board's tasks and never set by users.
type BoardStatus string

const (
	BoardToDo       BoardStatus = "To Do"
	BoardInProgress BoardStatus = "In Progress"
	BoardCompleted  BoardStatus = "Completed"
)

func (s BoardStatus) Valid() bool {
	switch s {
	case BoardToDo, BoardInProgress, BoardCompleted:
		return true
	}
	return false
}

type Member struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Uploader struct {
	ID    string `json:"uid"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Document struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Path       string    `json:"path"`
	Type       string    `json:"type"`
	UploadedAt time.Time `json:"uploadedAt"`
	UploadedBy Uploader  `json:"uploadedBy"`
}

// Board represents the database model
type Board struct {
	ID                   uuid.UUID                     `gorm:"type:uuid;primarykey" json:"id"`
	Name                 string                        `gorm:"not null" json:"boardName"`
	Description          string                        `json:"description"`
	Priority             Priority                      `gorm:"default:'Medium'" json:"priority"`
	Deadline             *time.Time                    `json:"deadline"`
	Members              datatypes.JSONSlice[Member]   `json:"members"`
	MemberIDs            datatypes.JSONSlice[string]   `json:"memberIds"`
	CreatedBy            string                        `gorm:"not null;index" json:"createdBy"`
	CreatedByName        string                        `json:"createdByName"`
	Status               BoardStatus                   `gorm:"default:'To Do'" json:"status"`
	CompletionPercentage int                           `gorm:"default:0" json:"completionPercentage"`
	Documents            datatypes.JSONSlice[Document] `json:"documents"`
	CreatedAt            time.Time                     `gorm:"index" json:"createdAt"`
	UpdatedAt            time.Time                     `json:"updatedAt"`
}

func (b *Board) IsAdmin(userID string) bool {
	return b.CreatedBy == userID
}

func (b *Board) HasMember(userID string) bool {
	for _, id := range b.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// SetMembers replaces the member list, de-duplicating by id, and keeps MemberIDs in step.
func (b *Board) SetMembers(members []Member) {
	seen := make(map[string]bool, len(members))
	out := make([]Member, 0, len(members))
	ids := make([]string, 0, len(members))
	for _, m := range members {
		if m.ID == "" || seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		out = append(out, m)
		ids = append(ids, m.ID)
	}
	b.Members = out
	b.MemberIDs = ids
}

// BoardMember indexes membership so boards can be listed per user.
type BoardMember struct {
	BoardID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID  string    `gorm:"primaryKey;index"`
}
