package media

import (
	"fmt"
	"image"
	"io"
	"log"
	"math"

	"github.com/disintegration/imaging"
)

const (
	ThumbnailJpegQuality   = 90
	ThumbnailFileExtension = ".jpg"
)

// Processor handles media transformations like thumbnailing. it relies on a
// Store implementation for saving the results.
type Processor struct {
	store Store
}

func NewProcessor(store Store) *Processor {
	return &Processor{store: store}
}

// GenerateThumbnail creates a thumbnail where the longest side matches
// maxSize and saves it using the Store. returns relative path of the saved
// thumbnail or error.
func (p *Processor) GenerateThumbnail(originalImg image.Image, imageID string, maxSize int) (string, error) {
	origBounds := originalImg.Bounds()
	origWidth := origBounds.Dx()
	origHeight := origBounds.Dy()
	if origWidth <= 0 || origHeight <= 0 {
		return "", fmt.Errorf("invalid original image dimensions: %dx%d", origWidth, origHeight)
	}

	var newWidth, newHeight int
	if origWidth > origHeight {
		if origWidth <= maxSize {
			newWidth, newHeight = origWidth, origHeight
		} else {
			newWidth = maxSize
			newHeight = int(math.Round(float64(origHeight) * (float64(maxSize) / float64(origWidth))))
		}
	} else {
		if origHeight <= maxSize {
			newWidth, newHeight = origWidth, origHeight
		} else {
			newHeight = maxSize
			newWidth = int(math.Round(float64(origWidth) * (float64(maxSize) / float64(origHeight))))
		}
	}
	newWidth = max(1, newWidth)
	newHeight = max(1, newHeight)

	thumb := imaging.Resize(originalImg, newWidth, newHeight, imaging.Lanczos)

	reader, writer := io.Pipe()
	go func() {
		defer writer.Close()
		err := imaging.Encode(writer, thumb, imaging.JPEG, imaging.JPEGQuality(ThumbnailJpegQuality))
		if err != nil {
			log.Printf("media.processor: Failed to encode thumbnail for %s: %v", imageID, err)
			writer.CloseWithError(fmt.Errorf("thumbnail encoding failed: %w", err))
		}
	}()

	relPath, err := p.store.Save(AssetTypeThumbnail, "", imageID+ThumbnailFileExtension, reader)
	if err != nil {
		return "", fmt.Errorf("failed to save thumbnail for %s: %w", imageID, err)
	}
	return relPath, nil
}

// OpenImage decodes a stored original via imaging.
func OpenImage(fullPath string) (image.Image, error) {
	img, err := imaging.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", fullPath, err)
	}
	return img, nil
}
