package models

import (
	"time"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"index" json:"user_id"`           // Nullable for anonymous actions such as failed logins
	Action    string    `gorm:"size:50;not null" json:"action"` // e.g., "LOGIN", "CREATE_LINK", "DELETE_LINK"
	EntityID  string    `gorm:"size:50" json:"entity_id"`       // Link ID or username, truncated to the column size
	Details   string    `gorm:"type:text" json:"details"`
	IPAddress string    `gorm:"size:45" json:"ip_address"`
	Browser   string    `gorm:"size:100" json:"browser"`
	OS        string    `gorm:"size:100" json:"os"`
	Timestamp time.Time `json:"timestamp"`
}
