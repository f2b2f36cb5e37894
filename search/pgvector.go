package search

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/visra-dev/visrabackend/models"
	"github.com/visra-dev/visrabackend/repository"
)

const defaultResultLimit = 20

// Embedder turns an image into a feature vector. The actual model is an
// external concern; any implementation with a consistent vector space works.
type Embedder interface {
	Embed(ctx context.Context, image []byte) ([]float32, error)
}

// PgvectorEngine ranks indexed images by cosine distance between the query
// embedding and a pgvector column, then hydrates the matched Image records
// from the local repository in rank order.
type PgvectorEngine struct {
	db       *pgxpool.Pool
	embedder Embedder
	images   repository.ImageRepository
	limit    int
}

func NewPgvectorEngine(ctx context.Context, dsn string, embedder Embedder, images repository.ImageRepository) (*PgvectorEngine, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to pgvector database: %w", err)
	}
	return &PgvectorEngine{
		db:       pool,
		embedder: embedder,
		images:   images,
		limit:    defaultResultLimit,
	}, nil
}

func (e *PgvectorEngine) Close() {
	e.db.Close()
}

func (e *PgvectorEngine) Search(ctx context.Context, queryImage []byte, opts Options) (*Result, error) {
	vec, err := e.embedder.Embed(ctx, queryImage)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query image: %w", err)
	}

	rows, err := e.db.Query(ctx, `
		SELECT image_id
		FROM image_embeddings
		ORDER BY embedding <=> $1
		LIMIT $2
	`, pgvector.NewVector(vec), e.limit)
	if err != nil {
		return nil, fmt.Errorf("embedding query failed: %w", err)
	}
	defer rows.Close()

	var rankedIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan embedding row: %w", err)
		}
		rankedIDs = append(rankedIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating embedding rows: %w", err)
	}

	images, err := e.images.ListByIDs(rankedIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to hydrate result images: %w", err)
	}
	byID := make(map[string]models.Image, len(images))
	for _, img := range images {
		byID[img.ID] = img
	}

	// preserve the distance ranking while applying the detection filters
	results := make([]models.Image, 0, len(rankedIDs))
	for _, id := range rankedIDs {
		img, ok := byID[id]
		if !ok {
			continue
		}
		if matchesFilters(&img, opts) {
			results = append(results, img)
		}
	}

	return &Result{Images: results, Total: len(results)}, nil
}

func matchesFilters(img *models.Image, opts Options) bool {
	if opts.Class == "" && opts.MinConfidence <= 0 {
		return true
	}
	for _, det := range img.Detections {
		if opts.Class != "" && det.Class != opts.Class {
			continue
		}
		if det.Confidence < opts.MinConfidence {
			continue
		}
		return true
	}
	return false
}
