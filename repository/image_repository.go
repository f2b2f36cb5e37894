package repository

import (
	"fmt"
	"sort"
	"time"

	"github.com/facette/natsort"
	"gorm.io/gorm"

	"github.com/visra-dev/visrabackend/database"
	"github.com/visra-dev/visrabackend/models"
	"github.com/visra-dev/visrabackend/utils"
)

// GormImageRepository handles database operations for Image entities
type GormImageRepository struct {
	db *gorm.DB
}

func NewGormImageRepository(db *gorm.DB) ImageRepository {
	return &GormImageRepository{db: db}
}

func (r *GormImageRepository) Create(image *models.Image) error {
	if !database.IsValidStatus(image.Status) {
		return fmt.Errorf("invalid image status %q", image.Status)
	}
	if err := r.db.Create(image).Error; err != nil {
		return fmt.Errorf("failed to create image record %s: %w", image.ID, err)
	}
	return nil
}

func (r *GormImageRepository) GetByID(id string) (*models.Image, error) {
	var image models.Image
	err := r.db.Preload("Detections", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Where("id = ?", id).First(&image).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get image %s: %w", id, err)
	}
	return &image, nil
}

func (r *GormImageRepository) List(filter ImageFilter) ([]models.Image, error) {
	query := r.db.Preload("Detections", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
	if filter.Source != "" {
		query = query.Where("source = ?", filter.Source)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	switch filter.Sort {
	case database.SortFilenameAsc:
		query = query.Order("filename ASC")
	case database.SortDateAsc:
		query = query.Order("uploaded_at ASC, id ASC")
	case database.SortFilenameNat:
		// natural order is applied in Go below
	default:
		query = query.Order("uploaded_at DESC, id DESC")
	}

	var images []models.Image
	if err := query.Find(&images).Error; err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	if filter.Sort == database.SortFilenameNat {
		sort.SliceStable(images, func(i, j int) bool {
			return natsort.Compare(images[i].Filename, images[j].Filename)
		})
	}
	return images, nil
}

func (r *GormImageRepository) ListByIDs(ids []string) ([]models.Image, error) {
	if len(ids) == 0 {
		return []models.Image{}, nil
	}
	var images []models.Image
	err := r.db.Preload("Detections", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Where("id IN ?", ids).Find(&images).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get images by ids: %w", err)
	}
	return images, nil
}

func (r *GormImageRepository) ListDetections(filter DetectionFilter) ([]models.Detection, error) {
	query := r.db.Model(&models.Detection{})
	if filter.Class != "" {
		query = query.Where("class = ?", filter.Class)
	}
	if filter.MinConfidence > 0 {
		query = query.Where("confidence >= ?", filter.MinConfidence)
	}
	var detections []models.Detection
	if err := query.Order("image_id, position").Find(&detections).Error; err != nil {
		return nil, fmt.Errorf("failed to list detections: %w", err)
	}
	return detections, nil
}

// SetStatus moves an image to a new lifecycle status, enforcing the
// forward-only transition rule inside the transaction.
func (r *GormImageRepository) SetStatus(id, status string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var image models.Image
		if err := tx.Select("id", "status").Where("id = ?", id).First(&image).Error; err != nil {
			return err
		}
		if !database.CanTransition(image.Status, status) {
			return fmt.Errorf("invalid status transition %s -> %s for image %s", image.Status, status, id)
		}
		return tx.Model(&models.Image{}).Where("id = ?", id).Update("status", status).Error
	})
}

// UpdateAnnotationResult finalizes an image after the annotator ran: stores
// metadata, the thumbnail path and the detection sequence, then moves the
// image to done or failed. Detections keep the annotator's order via their
// Position column.
func (r *GormImageRepository) UpdateAnnotationResult(id string, meta *utils.Metadata, thumbnailPath *string, detections []models.Detection, taskErr error) error {
	now := time.Now().Unix()
	status := database.StatusDone
	var errStr *string
	if taskErr != nil {
		status = database.StatusFailed
		s := taskErr.Error()
		errStr = &s
		detections = nil // do not record detections from a failed run
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		var image models.Image
		if err := tx.Select("id", "status").Where("id = ?", id).First(&image).Error; err != nil {
			return fmt.Errorf("failed to load image %s for annotation result: %w", id, err)
		}
		if !database.CanTransition(image.Status, status) {
			return fmt.Errorf("invalid status transition %s -> %s for image %s", image.Status, status, id)
		}

		if len(detections) > 0 {
			for i := range detections {
				detections[i].ImageID = id
				detections[i].Position = i
			}
			if err := tx.Create(&detections).Error; err != nil {
				return fmt.Errorf("failed to add detections for image %s: %w", id, err)
			}
		}

		updates := map[string]interface{}{
			"status":           status,
			"annotated_at":     &now,
			"annotation_error": errStr,
			"thumbnail_path":   thumbnailPath,
		}
		if thumbnailPath != nil {
			thumbURL := "/api/media/" + *thumbnailPath
			updates["thumbnail_url"] = &thumbURL
		}
		if meta != nil {
			updates["width"] = meta.Width
			updates["height"] = meta.Height
			updates["aperture"] = meta.Aperture
			updates["shutter_speed"] = meta.ShutterSpeed
			updates["iso"] = meta.ISO
			updates["focal_length"] = meta.FocalLength
			updates["lens_make"] = meta.LensMake
			updates["lens_model"] = meta.LensModel
			updates["camera_make"] = meta.CameraMake
			updates["camera_model"] = meta.CameraModel
			updates["taken_at"] = meta.TakenAt
			updates["latitude"] = meta.Latitude
			updates["longitude"] = meta.Longitude
		}
		if err := tx.Model(&models.Image{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update annotation result for image %s: %w", id, err)
		}
		return nil
	})
}
