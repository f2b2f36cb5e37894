// Package export turns a slice of search history entries into a portable
// artifact: a JSON document, a CSV sheet or a ZIP of the referenced image
// binaries. Artifacts are built fully in memory and only persisted once
// complete, so a failed export never leaves a partial file behind.
package export

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"

	"github.com/visra-dev/visrabackend/media"
	"github.com/visra-dev/visrabackend/models"
)

const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatZIP  = "zip"
)

// FailedError reports an aborted export, tagged with the attempted format.
type FailedError struct {
	Format string
	Err    error
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("export to %s failed: %v", e.Format, e.Err)
}

func (e *FailedError) Unwrap() error {
	return e.Err
}

// Exporter is one output format. Export must either write the complete
// artifact or return an error having written nothing the caller keeps.
type Exporter interface {
	Format() string
	ContentType() string
	FileExtension() string
	Export(buf *bytes.Buffer, entries []models.SearchEntry) error
}

// Pipeline selects an exporter by format, renders the artifact into memory
// and saves the finished bytes through the media store.
type Pipeline struct {
	store     media.Store
	exporters map[string]Exporter
}

func NewPipeline(store media.Store) *Pipeline {
	p := &Pipeline{
		store:     store,
		exporters: make(map[string]Exporter),
	}
	p.register(&JSONExporter{})
	p.register(&CSVExporter{})
	p.register(&ZIPExporter{Store: store})
	return p
}

func (p *Pipeline) register(e Exporter) {
	p.exporters[e.Format()] = e
}

// Formats lists the supported format tags.
func (p *Pipeline) Formats() []string {
	formats := make([]string, 0, len(p.exporters))
	for f := range p.exporters {
		formats = append(formats, f)
	}
	return formats
}

// Run renders the entries in the given format and persists the artifact,
// returning its relative storage path and content type. Any failure aborts
// with a *FailedError and nothing is persisted.
func (p *Pipeline) Run(format string, entries []models.SearchEntry) (string, string, error) {
	exporter, ok := p.exporters[format]
	if !ok {
		return "", "", &FailedError{Format: format, Err: fmt.Errorf("unknown export format")}
	}

	var buf bytes.Buffer
	if err := exporter.Export(&buf, entries); err != nil {
		return "", "", &FailedError{Format: format, Err: err}
	}

	filename := fmt.Sprintf("export_%s%s", uuid.NewString()[:8], exporter.FileExtension())
	relPath, err := p.store.Save(media.AssetTypeExport, "", filename, &buf)
	if err != nil {
		return "", "", &FailedError{Format: format, Err: err}
	}
	return relPath, exporter.ContentType(), nil
}
