package repository

import (
	"testing"

	"github.com/visra-dev/visrabackend/models"
)

func seedLogs(t *testing.T, repo ActivityLogRepository) {
	t.Helper()
	entries := []models.ActivityLog{
		{UserID: 1, Action: "login", Details: "a@x.com", Status: models.LogStatusSuccess},
		{UserID: 1, Action: "search", Details: "q.png", Status: models.LogStatusSuccess},
		{UserID: 2, Action: "login", Details: "b@x.com", Status: models.LogStatusError},
		{UserID: 2, Action: "export", Details: "zip", Status: models.LogStatusSuccess},
	}
	for i := range entries {
		if err := repo.Insert(&entries[i]); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
}

func TestActivityLogFilters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormActivityLogRepository(db)
	seedLogs(t, repo)

	all, err := repo.List(ActivityLogFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(all))
	}

	byUser, err := repo.List(ActivityLogFilter{UserID: 1})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(byUser) != 2 {
		t.Errorf("user filter: expected 2 entries, got %d", len(byUser))
	}

	byAction, err := repo.List(ActivityLogFilter{Action: "login"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(byAction) != 2 {
		t.Errorf("action filter: expected 2 entries, got %d", len(byAction))
	}

	combined, err := repo.List(ActivityLogFilter{UserID: 2, Action: "login", Status: models.LogStatusError})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(combined) != 1 || combined[0].Details != "b@x.com" {
		t.Errorf("combined filter: expected the single failed login, got %d entries", len(combined))
	}

	limited, err := repo.List(ActivityLogFilter{Limit: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limit: expected 2 entries, got %d", len(limited))
	}
}
