package history

import (
	"fmt"
	"log"
	"sync"

	"github.com/visra-dev/visrabackend/models"
	"github.com/visra-dev/visrabackend/repository"
)

// PersistenceWarning reports that a ledger entry could not be written
// durably. The entry is still visible for the rest of the process session;
// the caller treats this as non-fatal.
type PersistenceWarning struct {
	Err error
}

func (w *PersistenceWarning) Error() string {
	return fmt.Sprintf("search history not persisted durably: %v", w.Err)
}

func (w *PersistenceWarning) Unwrap() error {
	return w.Err
}

// Ledger is the append-only search history. Reads are most-recent-first.
// When the durable store rejects a write the entry is kept in a
// process-local overlay so it stays visible until shutdown.
type Ledger struct {
	repo repository.HistoryRepository

	mu      sync.Mutex
	overlay map[uint][]models.SearchEntry // per user, most-recent-first
}

func NewLedger(repo repository.HistoryRepository) *Ledger {
	return &Ledger{
		repo:    repo,
		overlay: make(map[uint][]models.SearchEntry),
	}
}

// Append adds the entry to the front of the ledger. It never fails outright:
// when the durable store is unavailable the entry lands in the in-memory
// overlay and a *PersistenceWarning is returned.
func (l *Ledger) Append(entry *models.SearchEntry) error {
	if err := l.repo.Append(entry); err != nil {
		log.Printf("history: durable append failed for entry %s, keeping in-memory: %v", entry.PublicID, err)
		l.mu.Lock()
		l.overlay[entry.UserID] = append([]models.SearchEntry{*entry}, l.overlay[entry.UserID]...)
		l.mu.Unlock()
		return &PersistenceWarning{Err: err}
	}
	return nil
}

// List returns the user's entries most-recent-first. Overlay entries arrived
// while the store was down, but entries appended durably after the store
// recovered are newer still, so the two sources are merged by execution
// time. A store read failure degrades to the overlay plus a
// *PersistenceWarning.
func (l *Ledger) List(userID uint) ([]models.SearchEntry, error) {
	l.mu.Lock()
	pending := make([]models.SearchEntry, len(l.overlay[userID]))
	copy(pending, l.overlay[userID])
	l.mu.Unlock()

	persisted, err := l.repo.ListByUser(userID)
	if err != nil {
		return pending, &PersistenceWarning{Err: err}
	}
	return mergeByRecency(pending, persisted), nil
}

// mergeByRecency interleaves two most-recent-first entry lists into one,
// ordered by execution time. Ties go to the overlay side, which carries the
// finer-grained insertion order for entries stranded in the same second.
func mergeByRecency(pending, persisted []models.SearchEntry) []models.SearchEntry {
	merged := make([]models.SearchEntry, 0, len(pending)+len(persisted))
	i, j := 0, 0
	for i < len(pending) && j < len(persisted) {
		if pending[i].ExecutedAt >= persisted[j].ExecutedAt {
			merged = append(merged, pending[i])
			i++
		} else {
			merged = append(merged, persisted[j])
			j++
		}
	}
	merged = append(merged, pending[i:]...)
	return append(merged, persisted[j:]...)
}

// Get looks up a single entry by its public identifier, checking the overlay
// first.
func (l *Ledger) Get(publicID string) (*models.SearchEntry, error) {
	l.mu.Lock()
	for _, entries := range l.overlay {
		for i := range entries {
			if entries[i].PublicID == publicID {
				entry := entries[i]
				l.mu.Unlock()
				return &entry, nil
			}
		}
	}
	l.mu.Unlock()
	return l.repo.GetByPublicID(publicID)
}
