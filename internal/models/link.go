package models

import (
	"time"
)

type Link struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"not null;size:100" json:"title"`
	URL         string    `gorm:"column:url;not null;type:text" json:"url"`
	Description string    `gorm:"not null;size:500;default:''" json:"description"`
	CreatedAt   time.Time `gorm:"index:idx_links_created_at" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName pins the table name shared with the SQL migrations.
func (Link) TableName() string {
	return "links"
}
