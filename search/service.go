package search

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/visra-dev/visrabackend/history"
	"github.com/visra-dev/visrabackend/media"
	"github.com/visra-dev/visrabackend/models"
)

// callSequencer hands out a monotonically increasing sequence token per
// caller. A completion whose token is no longer the latest belongs to a
// superseded call and must be discarded.
type callSequencer struct {
	mu     sync.Mutex
	latest map[uint]uint64
}

func newCallSequencer() *callSequencer {
	return &callSequencer{latest: make(map[uint]uint64)}
}

func (c *callSequencer) next(userID uint) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest[userID]++
	return c.latest[userID]
}

func (c *callSequencer) isLatest(userID uint, seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest[userID] == seq
}

// Service coordinates one search: client-side validation, the engine round
// trip, the stale-completion guard and the ledger append.
type Service struct {
	engine         Engine
	ledger         *history.Ledger
	store          media.Store
	maxUploadBytes int64
	allowedTypes   map[string]bool
	calls          *callSequencer
}

func NewService(engine Engine, ledger *history.Ledger, store media.Store, maxUploadBytes int64, allowedTypes []string) *Service {
	allowed := make(map[string]bool, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[t] = true
	}
	return &Service{
		engine:         engine,
		ledger:         ledger,
		store:          store,
		maxUploadBytes: maxUploadBytes,
		allowedTypes:   allowed,
		calls:          newCallSequencer(),
	}
}

// ValidateQueryImage applies the size and media-type constraints. It runs
// before any network or engine cost is incurred.
func (s *Service) ValidateQueryImage(data []byte) error {
	if int64(len(data)) > s.maxUploadBytes {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrUploadTooLarge, len(data), s.maxUploadBytes)
	}
	contentType := media.SniffContentType(data)
	if !s.allowedTypes[contentType] {
		return fmt.Errorf("%w: %s", ErrUnsupportedMediaType, contentType)
	}
	return nil
}

// Search runs one search for the given user and appends the outcome to the
// history ledger. Overlapping calls by the same user are resolved in issue
// order: only the most recently issued call may record its result; earlier
// in-flight calls complete with ErrSuperseded and leave no trace. A
// *history.PersistenceWarning may be returned alongside a valid entry and is
// non-fatal.
func (s *Service) Search(ctx context.Context, userID uint, filename string, queryImage []byte, opts Options) (*models.SearchEntry, error) {
	if err := s.ValidateQueryImage(queryImage); err != nil {
		return nil, err
	}

	seq := s.calls.next(userID)

	result, err := s.engine.Search(ctx, queryImage, opts)
	if err != nil {
		return nil, fmt.Errorf("search engine call failed: %w", err)
	}

	// the caller abandoned this search; its result must not touch the ledger
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	// The staleness check and the append below are not atomic: a newer call
	// can take the sequence between them, letting this completion's entry
	// land in the ledger anyway. The entry still describes a search that
	// finished, and the newer call's own entry lists ahead of it by recency.
	if !s.calls.isLatest(userID, seq) {
		return nil, ErrSuperseded
	}

	entry := &models.SearchEntry{
		PublicID:      uuid.NewString(),
		UserID:        userID,
		QueryImageURL: s.storeQueryImage(entryFilename(filename), queryImage),
		ExecutedAt:    time.Now().Unix(),
		Total:         result.Total,
	}
	entry.Results = make([]models.SearchResult, len(result.Images))
	for i, img := range result.Images {
		entry.Results[i] = models.SearchResult{
			Rank:    i,
			ImageID: img.ID,
			Image:   img,
		}
	}

	if warn := s.ledger.Append(entry); warn != nil {
		return entry, warn
	}
	return entry, nil
}

// storeQueryImage keeps a copy of the query image so history can show it.
// Failure here is not fatal to the search; the entry just has no preview.
func (s *Service) storeQueryImage(filename string, data []byte) string {
	relPath, err := s.store.Save(media.AssetTypeQuery, "", filename, bytes.NewReader(data))
	if err != nil {
		log.Printf("search: failed to store query image copy: %v", err)
		return ""
	}
	return "/api/media/" + relPath
}

func entryFilename(original string) string {
	ext := path.Ext(original)
	if ext == "" {
		ext = ".jpg"
	}
	return uuid.NewString() + ext
}
