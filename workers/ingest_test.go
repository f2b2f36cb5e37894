package workers

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/visra-dev/visrabackend/config"
	"github.com/visra-dev/visrabackend/database"
	"github.com/visra-dev/visrabackend/media"
	"github.com/visra-dev/visrabackend/repository"
)

func setupIngestor(t *testing.T) (*Ingestor, repository.ImageRepository) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "ingest_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	db, err := database.InitGormDB(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	if err := database.AutoMigrateModels(db); err != nil {
		t.Fatalf("Failed to migrate schema: %v", err)
	}

	store, err := media.NewLocalStorage(filepath.Join(tempDir, "media"), map[media.AssetType]string{
		media.AssetTypeUpload:    "uploads",
		media.AssetTypeThumbnail: "thumbnails",
	})
	if err != nil {
		t.Fatalf("Failed to initialize store: %v", err)
	}

	images := repository.NewGormImageRepository(db)
	annotator := NewAnnotator(config.Config{ThumbnailMaxSize: 100}, images, store, media.NoopDetector{}, NoopGeocoder{}, nil, 10, 1)
	t.Cleanup(annotator.Stop)

	return NewIngestor(images, store, annotator), images
}

func TestIngestCreatesQueuedRecord(t *testing.T) {
	ingestor, images := setupIngestor(t)

	img, err := ingestor.Ingest("photo.png", bytes.NewReader([]byte("not-really-a-png")), SourceUpload)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if img.ID == "" {
		t.Fatal("expected a generated image ID")
	}
	if img.Filename != "photo.png" {
		t.Errorf("filename = %q, expected photo.png", img.Filename)
	}
	if img.Source != SourceUpload {
		t.Errorf("source = %q, expected %q", img.Source, SourceUpload)
	}
	if img.URL == "" || img.StoragePath == "" {
		t.Error("expected the stored binary path and URL to be set")
	}

	// the binary landed in the store
	full, err := ingestor.Store.GetFullPath(img.StoragePath)
	if err != nil {
		t.Fatalf("GetFullPath failed: %v", err)
	}
	if _, err := os.Stat(full); err != nil {
		t.Errorf("stored binary missing: %v", err)
	}

	if _, err := images.GetByID(img.ID); err != nil {
		t.Errorf("image record not persisted: %v", err)
	}
}

func TestImportArchiveSkipsNonImages(t *testing.T) {
	ingestor, images := setupIngestor(t)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range map[string]string{
		"photos/a.png":   "png-bytes",
		"photos/b.jpg":   "jpg-bytes",
		"notes.txt":      "not an image",
		"photos/sub/.DS": "junk",
	} {
		f, err := zw.Create(name)
		if err != nil {
			t.Fatalf("failed to add %s: %v", name, err)
		}
		f.Write([]byte(content))
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to finalize archive: %v", err)
	}

	imported, err := ingestor.ImportArchive(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("ImportArchive failed: %v", err)
	}
	if imported != 2 {
		t.Fatalf("imported = %d, expected 2 (only raster entries)", imported)
	}

	records, err := images.List(repository.ImageFilter{Source: SourceImport})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 import-sourced records, got %d", len(records))
	}
	names := map[string]bool{}
	for _, r := range records {
		names[r.Filename] = true
	}
	if !names["a.png"] || !names["b.jpg"] {
		t.Errorf("unexpected imported filenames: %v", names)
	}
}
