package repository

import (
	"os"
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/visra-dev/visrabackend/database"
	"github.com/visra-dev/visrabackend/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "repo_test")
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
	return db
}

func seedImage(t *testing.T, images ImageRepository, id, filename string) {
	t.Helper()
	err := images.Create(&models.Image{
		ID:       id,
		Filename: filename,
		Status:   database.StatusDone,
		Source:   "upload",
	})
	if err != nil {
		t.Fatalf("Failed to seed image %s: %v", id, err)
	}
}

func TestHistoryAppendOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormHistoryRepository(db)
	images := NewGormImageRepository(db)

	seedImage(t, images, "img-1", "a.jpg")
	seedImage(t, images, "img-2", "b.jpg")

	first := &models.SearchEntry{
		PublicID:   "entry-1",
		UserID:     1,
		ExecutedAt: 1000,
		Total:      1,
		Results:    []models.SearchResult{{Rank: 0, ImageID: "img-1"}},
	}
	second := &models.SearchEntry{
		PublicID:   "entry-2",
		UserID:     1,
		ExecutedAt: 2000,
		Total:      1,
		Results:    []models.SearchResult{{Rank: 0, ImageID: "img-2"}},
	}

	if err := repo.Append(first); err != nil {
		t.Fatalf("Append(first) failed: %v", err)
	}
	if err := repo.Append(second); err != nil {
		t.Fatalf("Append(second) failed: %v", err)
	}

	entries, err := repo.ListByUser(1)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].PublicID != "entry-2" || entries[1].PublicID != "entry-1" {
		t.Errorf("expected most-recent-first order [entry-2, entry-1], got [%s, %s]",
			entries[0].PublicID, entries[1].PublicID)
	}
}

func TestHistoryResultRankOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormHistoryRepository(db)
	images := NewGormImageRepository(db)

	seedImage(t, images, "img-1", "a.jpg")
	seedImage(t, images, "img-2", "b.jpg")
	seedImage(t, images, "img-3", "c.jpg")

	entry := &models.SearchEntry{
		PublicID:   "entry-ranked",
		UserID:     5,
		ExecutedAt: 1000,
		Total:      3,
		Results: []models.SearchResult{
			{Rank: 0, ImageID: "img-3"},
			{Rank: 1, ImageID: "img-1"},
			{Rank: 2, ImageID: "img-2"},
		},
	}
	if err := repo.Append(entry); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	loaded, err := repo.GetByPublicID("entry-ranked")
	if err != nil {
		t.Fatalf("GetByPublicID failed: %v", err)
	}
	if len(loaded.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(loaded.Results))
	}

	wantOrder := []string{"img-3", "img-1", "img-2"}
	for i, r := range loaded.Results {
		if r.ImageID != wantOrder[i] {
			t.Errorf("result %d: image = %s, expected %s", i, r.ImageID, wantOrder[i])
		}
		if r.Image.ID != wantOrder[i] {
			t.Errorf("result %d: hydrated image = %s, expected %s", i, r.Image.ID, wantOrder[i])
		}
	}
}

func TestHistoryListScopedToUser(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormHistoryRepository(db)

	mine := &models.SearchEntry{PublicID: "mine", UserID: 1, ExecutedAt: 1000}
	theirs := &models.SearchEntry{PublicID: "theirs", UserID: 2, ExecutedAt: 2000}
	if err := repo.Append(mine); err != nil {
		t.Fatalf("Append(mine) failed: %v", err)
	}
	if err := repo.Append(theirs); err != nil {
		t.Fatalf("Append(theirs) failed: %v", err)
	}

	entries, err := repo.ListByUser(1)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(entries) != 1 || entries[0].PublicID != "mine" {
		t.Errorf("expected only the caller's entry, got %d entries", len(entries))
	}
}

func TestHistoryGetUnknownEntry(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormHistoryRepository(db)

	_, err := repo.GetByPublicID("missing")
	if err != gorm.ErrRecordNotFound {
		t.Errorf("expected gorm.ErrRecordNotFound, got %v", err)
	}
}
