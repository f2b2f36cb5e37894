package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/visra-dev/visrabackend/models"
)

// GormHistoryRepository backs the search history ledger. Entries are only
// ever inserted; ORDER BY id DESC realizes the ledger's most-recent-first
// read order.
type GormHistoryRepository struct {
	db *gorm.DB
}

func NewGormHistoryRepository(db *gorm.DB) HistoryRepository {
	return &GormHistoryRepository{db: db}
}

func (r *GormHistoryRepository) Append(entry *models.SearchEntry) error {
	// result images already exist; only the entry and its rank rows are new
	if err := r.db.Omit("Results.Image").Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append search entry %s: %w", entry.PublicID, err)
	}
	return nil
}

func (r *GormHistoryRepository) ListByUser(userID uint) ([]models.SearchEntry, error) {
	var entries []models.SearchEntry
	err := r.db.Preload("Results", func(db *gorm.DB) *gorm.DB {
		return db.Order("rank ASC")
	}).Preload("Results.Image").Preload("Results.Image.Detections", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Where("user_id = ?", userID).
		Order("id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list search history for user %d: %w", userID, err)
	}
	return entries, nil
}

func (r *GormHistoryRepository) GetByPublicID(publicID string) (*models.SearchEntry, error) {
	var entry models.SearchEntry
	err := r.db.Preload("Results", func(db *gorm.DB) *gorm.DB {
		return db.Order("rank ASC")
	}).Preload("Results.Image").Preload("Results.Image.Detections", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Where("public_id = ?", publicID).First(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get search entry %s: %w", publicID, err)
	}
	return &entry, nil
}
