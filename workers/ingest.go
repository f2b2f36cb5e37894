package workers

import (
	"archive/zip"
	"fmt"
	"io"
	"log"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/visra-dev/visrabackend/database"
	"github.com/visra-dev/visrabackend/media"
	"github.com/visra-dev/visrabackend/models"
	"github.com/visra-dev/visrabackend/repository"
)

// source tags recording image provenance
const (
	SourceUpload = "upload"
	SourceImport = "import"
)

// Ingestor accepts new image binaries, creates their queued records and
// hands them to the annotation pool.
type Ingestor struct {
	Images    repository.ImageRepository
	Store     media.Store
	Annotator *Annotator
}

func NewIngestor(images repository.ImageRepository, store media.Store, annotator *Annotator) *Ingestor {
	return &Ingestor{Images: images, Store: store, Annotator: annotator}
}

// Ingest stores one binary, creates the Image in status queued and enqueues
// its annotation job. The annotator is what later moves the image forward.
func (ing *Ingestor) Ingest(filename string, data io.Reader, source string) (*models.Image, error) {
	id := uuid.NewString()
	storedName := id + path.Ext(filename)

	relPath, err := ing.Store.Save(media.AssetTypeUpload, "", storedName, data)
	if err != nil {
		return nil, fmt.Errorf("failed to store uploaded image: %w", err)
	}

	image := &models.Image{
		ID:          id,
		Filename:    filename,
		UploadedAt:  time.Now().Unix(),
		Status:      database.StatusQueued,
		Source:      source,
		StoragePath: relPath,
		URL:         "/api/media/" + relPath,
	}
	if err := ing.Images.Create(image); err != nil {
		// keep storage consistent with the database
		if delErr := ing.Store.Delete(relPath); delErr != nil {
			log.Printf("ingest: failed to remove orphaned binary %s: %v", relPath, delErr)
		}
		return nil, err
	}

	ing.Annotator.QueueJob(AnnotateJob{ImageID: image.ID, StoragePath: relPath})
	return image, nil
}

// ImportArchive reads a ZIP of images and ingests every raster entry with
// the "import" source tag. Non-image entries are skipped, not errors.
// returns the number of images imported.
func (ing *Ingestor) ImportArchive(archive io.ReaderAt, size int64) (int, error) {
	reader, err := zip.NewReader(archive, size)
	if err != nil {
		return 0, fmt.Errorf("failed to open archive: %w", err)
	}

	imported := 0
	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() || !media.IsRasterImage(entry.Name) {
			continue
		}

		file, err := entry.Open()
		if err != nil {
			return imported, fmt.Errorf("failed to open archive entry %s: %w", entry.Name, err)
		}
		_, err = ing.Ingest(path.Base(entry.Name), file, SourceImport)
		file.Close()
		if err != nil {
			return imported, fmt.Errorf("failed to import %s: %w", entry.Name, err)
		}
		imported++
	}

	log.Printf("ingest: imported %d image(s) from archive", imported)
	return imported, nil
}
