package models

const (
	LogStatusSuccess = "success"
	LogStatusError   = "error"
)

// ActivityLog is an audit record of a user-triggered operation, surfaced on
// the admin log screen.
type ActivityLog struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	CreatedAt int64  `json:"timestamp" gorm:"not null;index"` // Unix timestamp
	UserID    uint   `json:"user_id" gorm:"index;not null"`
	Action    string `json:"action" gorm:"not null;index"` // e.g. "user_login", "image_upload"
	Details   string `json:"details"`
	Status    string `json:"status" gorm:"not null"` // success or error
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}
