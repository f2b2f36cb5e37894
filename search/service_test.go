package search

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/visra-dev/visrabackend/history"
	"github.com/visra-dev/visrabackend/media"
	"github.com/visra-dev/visrabackend/models"
)

var pngPayload = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

// engineFunc adapts a closure to the Engine interface.
type engineFunc func(ctx context.Context, queryImage []byte, opts Options) (*Result, error)

func (f engineFunc) Search(ctx context.Context, queryImage []byte, opts Options) (*Result, error) {
	return f(ctx, queryImage, opts)
}

// memRepo is an always-durable in-memory history store.
type memRepo struct {
	mu      sync.Mutex
	entries []models.SearchEntry
}

func (m *memRepo) Append(entry *models.SearchEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append([]models.SearchEntry{*entry}, m.entries...)
	return nil
}

func (m *memRepo) ListByUser(userID uint) ([]models.SearchEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SearchEntry
	for _, e := range m.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memRepo) GetByPublicID(publicID string) (*models.SearchEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.entries {
		if m.entries[i].PublicID == publicID {
			return &m.entries[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// memStore satisfies media.Store without touching the filesystem.
type memStore struct{}

func (memStore) Save(assetType media.AssetType, dirHint, filenameHint string, data io.Reader) (string, error) {
	io.Copy(io.Discard, data)
	return string(assetType) + "/" + filenameHint, nil
}
func (memStore) Get(string) (io.ReadCloser, os.FileInfo, error) {
	return io.NopCloser(bytes.NewReader(nil)), nil, nil
}
func (memStore) Delete(string) error                  { return nil }
func (memStore) GetFullPath(rel string) (string, error) { return "/" + rel, nil }
func (memStore) EnsureDir(media.AssetType) (string, error) { return "", nil }

func newTestService(engine Engine, repo *memRepo) *Service {
	return NewService(engine, history.NewLedger(repo), memStore{}, 1<<20, []string{"image/png", "image/jpeg"})
}

func TestSearchValidatesBeforeEngineCall(t *testing.T) {
	engineCalled := false
	engine := engineFunc(func(ctx context.Context, img []byte, opts Options) (*Result, error) {
		engineCalled = true
		return &Result{}, nil
	})
	svc := newTestService(engine, &memRepo{})

	big := make([]byte, 2<<20)
	copy(big, pngPayload)
	_, err := svc.Search(context.Background(), 1, "big.png", big, Options{})
	if !errors.Is(err, ErrUploadTooLarge) {
		t.Errorf("oversized payload: expected ErrUploadTooLarge, got %v", err)
	}

	_, err = svc.Search(context.Background(), 1, "notes.txt", []byte("plain text, not an image"), Options{})
	if !errors.Is(err, ErrUnsupportedMediaType) {
		t.Errorf("text payload: expected ErrUnsupportedMediaType, got %v", err)
	}

	if engineCalled {
		t.Error("engine must not be called for an invalid query image")
	}
}

func TestSearchRecordsRankedResults(t *testing.T) {
	engine := engineFunc(func(ctx context.Context, img []byte, opts Options) (*Result, error) {
		return &Result{
			Images: []models.Image{
				{ID: "img-b", Filename: "b.jpg"},
				{ID: "img-a", Filename: "a.jpg"},
			},
			Total: 2,
		}, nil
	})
	repo := &memRepo{}
	svc := newTestService(engine, repo)

	entry, err := svc.Search(context.Background(), 1, "query.png", pngPayload, Options{})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if entry.Total != 2 {
		t.Errorf("Total = %d, expected 2", entry.Total)
	}
	if len(entry.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(entry.Results))
	}
	if entry.Results[0].ImageID != "img-b" || entry.Results[0].Rank != 0 {
		t.Errorf("rank 0 = %s, expected img-b", entry.Results[0].ImageID)
	}
	if entry.Results[1].ImageID != "img-a" || entry.Results[1].Rank != 1 {
		t.Errorf("rank 1 = %s, expected img-a", entry.Results[1].ImageID)
	}
	if entry.QueryImageURL == "" {
		t.Error("expected a stored query image URL")
	}

	// the entry landed in the ledger
	stored, err := repo.GetByPublicID(entry.PublicID)
	if err != nil {
		t.Fatalf("entry not found in ledger: %v", err)
	}
	if stored.Total != 2 {
		t.Errorf("stored Total = %d, expected 2", stored.Total)
	}
}

func TestSearchSupersededCallDiscarded(t *testing.T) {
	releaseA := make(chan struct{})
	aInFlight := make(chan struct{})
	firstCall := true
	var mu sync.Mutex

	engine := engineFunc(func(ctx context.Context, img []byte, opts Options) (*Result, error) {
		mu.Lock()
		isFirst := firstCall
		firstCall = false
		mu.Unlock()
		if isFirst {
			close(aInFlight)
			<-releaseA // call A parks here until call B has fully completed
			return &Result{Images: []models.Image{{ID: "stale"}}, Total: 1}, nil
		}
		return &Result{Images: []models.Image{{ID: "fresh"}}, Total: 1}, nil
	})
	repo := &memRepo{}
	svc := newTestService(engine, repo)

	type outcome struct {
		entry *models.SearchEntry
		err   error
	}
	aDone := make(chan outcome, 1)
	go func() {
		entry, err := svc.Search(context.Background(), 1, "a.png", pngPayload, Options{})
		aDone <- outcome{entry, err}
	}()
	// wait until call A holds its sequence token and sits inside the engine
	<-aInFlight

	entryB, err := svc.Search(context.Background(), 1, "b.png", pngPayload, Options{})
	if err != nil {
		t.Fatalf("call B failed: %v", err)
	}
	if entryB.Results[0].ImageID != "fresh" {
		t.Errorf("call B recorded %s, expected fresh", entryB.Results[0].ImageID)
	}

	close(releaseA)
	resultA := <-aDone
	if !errors.Is(resultA.err, ErrSuperseded) {
		t.Fatalf("call A: expected ErrSuperseded, got %v", resultA.err)
	}
	if resultA.entry != nil {
		t.Error("superseded call must not return an entry")
	}

	// only B's entry is in the ledger
	entries, err := repo.ListByUser(1)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(entries))
	}
	if entries[0].PublicID != entryB.PublicID {
		t.Error("ledger holds an entry from the superseded call")
	}
}

func TestSearchAbandonedContextLeavesNoTrace(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	engine := engineFunc(func(ctx context.Context, img []byte, opts Options) (*Result, error) {
		cancel() // the caller walks away while the engine is working
		return &Result{Images: []models.Image{{ID: "late"}}, Total: 1}, nil
	})
	repo := &memRepo{}
	svc := newTestService(engine, repo)

	_, err := svc.Search(ctx, 1, "q.png", pngPayload, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	entries, listErr := repo.ListByUser(1)
	if listErr != nil {
		t.Fatalf("ListByUser failed: %v", listErr)
	}
	if len(entries) != 0 {
		t.Errorf("expected no ledger entries for an abandoned call, got %d", len(entries))
	}
}
