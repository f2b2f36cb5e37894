package history

import (
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/visra-dev/visrabackend/models"
)

// stubRepo is an in-memory HistoryRepository whose durability can be
// switched off to exercise the overlay path.
type stubRepo struct {
	entries []models.SearchEntry
	fail    bool
}

var errStoreDown = errors.New("store unavailable")

func (s *stubRepo) Append(entry *models.SearchEntry) error {
	if s.fail {
		return errStoreDown
	}
	s.entries = append([]models.SearchEntry{*entry}, s.entries...)
	return nil
}

func (s *stubRepo) ListByUser(userID uint) ([]models.SearchEntry, error) {
	if s.fail {
		return nil, errStoreDown
	}
	var out []models.SearchEntry
	for _, e := range s.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *stubRepo) GetByPublicID(publicID string) (*models.SearchEntry, error) {
	for i := range s.entries {
		if s.entries[i].PublicID == publicID {
			return &s.entries[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func entry(publicID string, userID uint, ts int64) *models.SearchEntry {
	return &models.SearchEntry{PublicID: publicID, UserID: userID, ExecutedAt: ts}
}

func TestLedgerAppendAndList(t *testing.T) {
	repo := &stubRepo{}
	ledger := NewLedger(repo)

	if err := ledger.Append(entry("e1", 1, 100)); err != nil {
		t.Fatalf("Append(e1) failed: %v", err)
	}
	if err := ledger.Append(entry("e2", 1, 200)); err != nil {
		t.Fatalf("Append(e2) failed: %v", err)
	}

	entries, err := ledger.List(1)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].PublicID != "e2" || entries[1].PublicID != "e1" {
		t.Errorf("expected [e2, e1], got [%s, %s]", entries[0].PublicID, entries[1].PublicID)
	}
}

func TestLedgerAppendFailureKeepsEntryVisible(t *testing.T) {
	repo := &stubRepo{}
	ledger := NewLedger(repo)

	if err := ledger.Append(entry("durable", 1, 100)); err != nil {
		t.Fatalf("Append(durable) failed: %v", err)
	}

	repo.fail = true
	err := ledger.Append(entry("volatile", 1, 200))

	var warn *PersistenceWarning
	if !errors.As(err, &warn) {
		t.Fatalf("expected *PersistenceWarning, got %v", err)
	}
	if !errors.Is(err, errStoreDown) {
		t.Errorf("expected warning to wrap the store error, got %v", warn.Unwrap())
	}

	// the entry stays readable even though the store is still down
	repo.fail = false
	entries, listErr := ledger.List(1)
	if listErr != nil {
		t.Fatalf("List failed: %v", listErr)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].PublicID != "volatile" {
		t.Errorf("expected the overlay entry first, got %s", entries[0].PublicID)
	}

	got, err := ledger.Get("volatile")
	if err != nil {
		t.Fatalf("Get(volatile) failed: %v", err)
	}
	if got.PublicID != "volatile" {
		t.Errorf("Get returned %s, expected volatile", got.PublicID)
	}
}

func TestLedgerListOrdersOverlayByRecency(t *testing.T) {
	repo := &stubRepo{}
	ledger := NewLedger(repo)

	// stranded in the overlay during an outage
	repo.fail = true
	if err := ledger.Append(entry("stranded", 1, 100)); err == nil {
		t.Fatal("expected a persistence warning while the store is down")
	}

	// appended durably after the store recovered
	repo.fail = false
	if err := ledger.Append(entry("recovered", 1, 200)); err != nil {
		t.Fatalf("Append(recovered) failed: %v", err)
	}

	entries, err := ledger.List(1)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].PublicID != "recovered" || entries[1].PublicID != "stranded" {
		t.Errorf("expected [recovered, stranded], got [%s, %s]", entries[0].PublicID, entries[1].PublicID)
	}
}

func TestLedgerListDegradesToOverlay(t *testing.T) {
	repo := &stubRepo{fail: true}
	ledger := NewLedger(repo)

	if err := ledger.Append(entry("only", 1, 100)); err == nil {
		t.Fatal("expected a persistence warning while the store is down")
	}

	entries, err := ledger.List(1)
	var warn *PersistenceWarning
	if !errors.As(err, &warn) {
		t.Fatalf("expected *PersistenceWarning from List, got %v", err)
	}
	if len(entries) != 1 || entries[0].PublicID != "only" {
		t.Errorf("expected the overlay entry to be listed, got %d entries", len(entries))
	}
}
