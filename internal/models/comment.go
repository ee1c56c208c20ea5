package models

import "time"

type Comment struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	Body      string    `gorm:"not null" json:"body"`
	LinkID    *int      `gorm:"index" json:"link_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
