package models

import "time"

type Link struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	URL         string    `gorm:"column:url;not null" json:"url"`
	Description string    `gorm:"not null" json:"description"`
	PostedByID  *int      `gorm:"index" json:"posted_by_id,omitempty"` // nil for links with no known poster
	CreatedAt   time.Time `gorm:"index" json:"created_at"`

	Comments []Comment `gorm:"foreignKey:LinkID;constraint:OnDelete:CASCADE" json:"-"`
	Votes    []Vote    `gorm:"foreignKey:LinkID;constraint:OnDelete:CASCADE" json:"-"`
}

type CreateLinkRequest struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// SortOrder is the direction of one feed ordering key.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// LinkOrderBy mirrors the LinkOrderByInput GraphQL input. Empty fields are
// left out of the ORDER BY clause.
type LinkOrderBy struct {
	Description SortOrder `json:"description,omitempty"`
	URL         SortOrder `json:"url,omitempty"`
	CreatedAt   SortOrder `json:"createdAt,omitempty"`
}
