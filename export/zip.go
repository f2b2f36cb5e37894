package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"

	"github.com/visra-dev/visrabackend/media"
	"github.com/visra-dev/visrabackend/models"
)

// ZIPExporter bundles the image binaries referenced by the exported entries
// into one archive. An image referenced by several entries appears exactly
// once; any unreadable binary aborts the whole export.
type ZIPExporter struct {
	Store media.Store
}

func (ZIPExporter) Format() string        { return FormatZIP }
func (ZIPExporter) ContentType() string   { return "application/zip" }
func (ZIPExporter) FileExtension() string { return ".zip" }

func (e ZIPExporter) Export(buf *bytes.Buffer, entries []models.SearchEntry) error {
	zipWriter := zip.NewWriter(buf)

	seen := make(map[string]bool)
	for _, entry := range entries {
		for _, result := range entry.Results {
			img := result.Image
			if seen[img.ID] {
				continue
			}
			seen[img.ID] = true

			if img.StoragePath == "" {
				return fmt.Errorf("image %s has no stored binary", img.ID)
			}
			if err := e.addImage(zipWriter, &img); err != nil {
				return err
			}
		}
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return nil
}

func (e ZIPExporter) addImage(zipWriter *zip.Writer, img *models.Image) error {
	reader, _, err := e.Store.Get(img.StoragePath)
	if err != nil {
		return fmt.Errorf("failed to open binary for image %s: %w", img.ID, err)
	}
	defer reader.Close()

	// image IDs keep archive member names unique across duplicate filenames
	writer, err := zipWriter.Create(img.ID + "_" + img.Filename)
	if err != nil {
		return fmt.Errorf("failed to create archive member for image %s: %w", img.ID, err)
	}
	if _, err := io.Copy(writer, reader); err != nil {
		return fmt.Errorf("failed to write image %s to archive: %w", img.ID, err)
	}
	return nil
}
