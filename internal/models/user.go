package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex:idx_users_username;not null;size:20" json:"username"`
	PasswordHash string    `gorm:"column:password;not null;size:60" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// SessionUser is the projection of a User resolved from the session on each request.
type SessionUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}
