package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/visra-dev/visrabackend/models"
)

type GormSessionRepository struct {
	db *gorm.DB
}

func NewGormSessionRepository(db *gorm.DB) SessionRepository {
	return &GormSessionRepository{db: db}
}

// Replace atomically swaps the user's live session for the given one. The
// delete and create run in one transaction so a failed login can never leave
// half-written token state behind.
func (r *GormSessionRepository) Replace(session *models.Session) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", session.UserID).Delete(&models.Session{}).Error; err != nil {
			return fmt.Errorf("failed to clear previous session for user %d: %w", session.UserID, err)
		}
		if err := tx.Create(session).Error; err != nil {
			return fmt.Errorf("failed to persist session for user %d: %w", session.UserID, err)
		}
		return nil
	})
}

func (r *GormSessionRepository) GetByUserID(userID uint) (*models.Session, error) {
	var session models.Session
	if err := r.db.Where("user_id = ?", userID).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *GormSessionRepository) GetByRefreshToken(refreshToken string) (*models.Session, error) {
	var session models.Session
	if err := r.db.Where("refresh_token = ?", refreshToken).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *GormSessionRepository) UpdateAccessToken(sessionID uint, accessToken string) error {
	result := r.db.Model(&models.Session{}).Where("id = ?", sessionID).Update("access_token", accessToken)
	if result.Error != nil {
		return fmt.Errorf("failed to update access token for session %d: %w", sessionID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteByUserID removes the user's session row entirely. Deleting an absent
// session is not an error; logout is idempotent.
func (r *GormSessionRepository) DeleteByUserID(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.Session{}).Error
}
