package models

import "time"

// Principal is the identity stored alongside a session's token pair.
type Principal struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Session holds the three pieces of durable session state: the principal
// snapshot, the access token and the refresh token. The unique index on
// UserID enforces at most one live session per principal; the whole row is
// written in one transaction so a token pair is never torn.
type Session struct {
	ID           uint      `json:"-" gorm:"primaryKey"`
	UserID       uint      `json:"-" gorm:"uniqueIndex;not null"`
	Principal    Principal `json:"user" gorm:"serializer:json;not null"`
	AccessToken  string    `json:"access_token" gorm:"not null"`
	RefreshToken string    `json:"refresh_token" gorm:"uniqueIndex;not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"-"`
}

func (Session) TableName() string {
	return "sessions"
}
