package models

import (
	"strings"
	"time"
)

// User is a profile in the member directory. Identity itself lives with the auth provider.
type User struct {
	ID        string    `gorm:"primarykey" json:"id"`
	FirstName string    `json:"firstName"`
	Surname   string    `json:"surname"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.Surname)
}

func (u *User) AsMember() Member {
	return Member{ID: u.ID, Name: u.DisplayName(), Email: u.Email}
}
