package models

import (
	"fmt"
	"math"
)

// BBox is a pixel-space bounding box relative to the source image's natural
// dimensions. All fields are non-negative.
type BBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Detection represents one detected object on an image. Detections are
// immutable once produced by the annotator and live only under their parent
// image, in annotator order (Position).
type Detection struct {
	ID         string  `json:"id" gorm:"primaryKey"`
	ImageID    string  `json:"-" gorm:"index;not null"`
	Position   int     `json:"-" gorm:"not null"`
	Class      string  `json:"class" gorm:"not null"`
	Confidence float64 `json:"confidence" gorm:"not null"`
	BBox       BBox    `json:"bbox" gorm:"embedded;embeddedPrefix:bbox_"`
	Address    *string `json:"address,omitempty"`
}

func (Detection) TableName() string {
	return "detections"
}

// Validate reports whether the detection satisfies the model invariants:
// confidence in [0,1] and a bounding box in non-negative coordinate space.
func (d *Detection) Validate() error {
	if d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("detection %s: confidence %g outside [0,1]", d.ID, d.Confidence)
	}
	if d.BBox.X < 0 || d.BBox.Y < 0 || d.BBox.Width < 0 || d.BBox.Height < 0 {
		return fmt.Errorf("detection %s: bounding box has negative component", d.ID)
	}
	return nil
}

// OverlayLabel is the label the rendering surface draws next to the box,
// e.g. "person (95%)".
func (d *Detection) OverlayLabel() string {
	return fmt.Sprintf("%s (%d%%)", d.Class, int(math.Round(d.Confidence*100)))
}
