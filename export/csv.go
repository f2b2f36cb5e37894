package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/visra-dev/visrabackend/models"
)

// CSVExporter flattens each (entry, result image) pair into one row.
// Detection detail is summarized to a count on purpose; the sheet is a
// lossy projection of the entry graph, not a defect.
type CSVExporter struct{}

func (CSVExporter) Format() string        { return FormatCSV }
func (CSVExporter) ContentType() string   { return "text/csv" }
func (CSVExporter) FileExtension() string { return ".csv" }

func (CSVExporter) Export(buf *bytes.Buffer, entries []models.SearchEntry) error {
	w := csv.NewWriter(buf)

	if err := w.Write([]string{"timestamp", "filename", "detections", "status"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, entry := range entries {
		timestamp := time.Unix(entry.ExecutedAt, 0).UTC().Format(time.RFC3339)
		for _, result := range entry.Results {
			img := result.Image
			row := []string{
				timestamp,
				img.Filename,
				strconv.Itoa(img.DetectionCount()),
				img.Status,
			}
			if err := w.Write(row); err != nil {
				return fmt.Errorf("failed to write csv row for image %s: %w", img.ID, err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}
