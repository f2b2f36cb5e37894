package models

// Image represents an indexed image record. It is created when an upload or
// import is accepted, mutated only by forward lifecycle transitions and by
// the annotator filling in metadata and detections, and never deleted here.
type Image struct {
	ID         string `json:"id" gorm:"primaryKey"`
	Filename   string `json:"filename" gorm:"not null"`
	UploadedAt int64  `json:"uploaded_at" gorm:"not null"` // Unix timestamp
	Status     string `json:"status" gorm:"not null;default:queued;index"`
	Source     string `json:"source" gorm:"not null;index"` // provenance, e.g. "upload", "import"

	// media store paths (relative); URLs are derived by the HTTP layer
	StoragePath   string  `json:"-" gorm:"not null"`
	ThumbnailPath *string `json:"-"`

	URL          string  `json:"url" gorm:"not null"`
	ThumbnailURL *string `json:"thumbnail_url,omitempty"`

	Width  *int `json:"width,omitempty"`
	Height *int `json:"height,omitempty"`

	// camera metadata extracted from EXIF
	CameraMake   *string  `json:"camera_make,omitempty"`
	CameraModel  *string  `json:"camera_model,omitempty"`
	LensMake     *string  `json:"lens_make,omitempty"`
	LensModel    *string  `json:"lens_model,omitempty"`
	FocalLength  *float64 `json:"focal_length,omitempty"` // mm
	Aperture     *float64 `json:"aperture,omitempty"`     // F-number
	ShutterSpeed *string  `json:"shutter_speed,omitempty"`
	ISO          *int     `json:"iso,omitempty"`
	TakenAt      *int64   `json:"taken_at,omitempty"` // Unix timestamp

	// GPS coordinate from EXIF, when present
	Latitude  *float64 `json:"lat,omitempty"`
	Longitude *float64 `json:"lng,omitempty"`

	AnnotatedAt     *int64  `json:"annotated_at,omitempty"` // Unix timestamp
	AnnotationError *string `json:"annotation_error,omitempty"`

	// ordered by Position, i.e. the annotator's detection order
	Detections []Detection `json:"detections" gorm:"foreignKey:ImageID;references:ID"`
}

func (Image) TableName() string {
	return "images"
}

// DetectionCount is the number the UI shows as "N detections"; it is always
// the length of the detection sequence.
func (img *Image) DetectionCount() int {
	return len(img.Detections)
}
