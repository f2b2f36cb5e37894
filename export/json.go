package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/visra-dev/visrabackend/models"
)

// Document is the structured-document export: the full entry graph
// (entries, ranked results, detections), lossless and round-trip safe.
type Document struct {
	ExportedAt int64                `json:"exported_at"`
	Entries    []models.SearchEntry `json:"entries"`
}

type JSONExporter struct{}

func (JSONExporter) Format() string        { return FormatJSON }
func (JSONExporter) ContentType() string   { return "application/json" }
func (JSONExporter) FileExtension() string { return ".json" }

func (JSONExporter) Export(buf *bytes.Buffer, entries []models.SearchEntry) error {
	doc := Document{
		ExportedAt: time.Now().Unix(),
		Entries:    entries,
	}
	enc := json.NewEncoder(buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode export document: %w", err)
	}
	return nil
}

// DecodeDocument re-imports a structured-document export, reproducing the
// entry graph it was built from.
func DecodeDocument(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode export document: %w", err)
	}
	return &doc, nil
}
