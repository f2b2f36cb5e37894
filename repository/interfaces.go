package repository

import (
	"github.com/visra-dev/visrabackend/models"
	"github.com/visra-dev/visrabackend/utils"
)

// UserRepository defines the methods for user data operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	ListAll() ([]models.User, error)
}

// SessionRepository defines the methods for session data operations. A
// session row carries the principal snapshot and both tokens; Replace and
// Delete act on whole rows so token state is never torn.
type SessionRepository interface {
	Replace(session *models.Session) error
	GetByUserID(userID uint) (*models.Session, error)
	GetByRefreshToken(refreshToken string) (*models.Session, error)
	UpdateAccessToken(sessionID uint, accessToken string) error
	DeleteByUserID(userID uint) error
}

// ImageFilter narrows image listings.
type ImageFilter struct {
	Source string
	Status string
	Sort   string
}

// DetectionFilter narrows cross-image detection listings.
type DetectionFilter struct {
	Class         string
	MinConfidence float64
}

// ImageRepository defines the methods for image data operations
type ImageRepository interface {
	Create(image *models.Image) error
	GetByID(id string) (*models.Image, error)
	List(filter ImageFilter) ([]models.Image, error)
	ListByIDs(ids []string) ([]models.Image, error)
	ListDetections(filter DetectionFilter) ([]models.Detection, error)
	SetStatus(id, status string) error
	UpdateAnnotationResult(id string, meta *utils.Metadata, thumbnailPath *string, detections []models.Detection, taskErr error) error
}

// HistoryRepository defines the methods backing the search history ledger.
// The ledger is append-only: no update or delete exists.
type HistoryRepository interface {
	Append(entry *models.SearchEntry) error
	ListByUser(userID uint) ([]models.SearchEntry, error)
	GetByPublicID(publicID string) (*models.SearchEntry, error)
}

// ActivityLogFilter narrows admin log listings; zero values mean "any".
type ActivityLogFilter struct {
	UserID uint
	Action string
	Status string
	Limit  uint64
}

// ActivityLogRepository defines the methods for audit log operations
type ActivityLogRepository interface {
	Insert(entry *models.ActivityLog) error
	List(filter ActivityLogFilter) ([]models.ActivityLog, error)
}
