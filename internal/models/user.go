package models

import "time"

type User struct {
	ID       int    `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"not null" json:"name"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"` // bcrypt hash

	Links []Link `gorm:"foreignKey:PostedByID" json:"-"`
	Votes []Vote `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthPayload is returned by signup and login.
type AuthPayload struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
