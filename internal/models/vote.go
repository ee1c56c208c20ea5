package models

import "time"

// Vote model - one row per (link, user); the pair is unique.
type Vote struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	LinkID    int       `gorm:"not null;uniqueIndex:idx_votes_link_user" json:"link_id"`
	UserID    int       `gorm:"not null;uniqueIndex:idx_votes_link_user" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
