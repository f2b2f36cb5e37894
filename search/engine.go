package search

import (
	"context"

	"github.com/visra-dev/visrabackend/models"
)

// Options narrows a similarity search. Unknown option keys on the transport
// are ignored before this struct is built; zero values mean "no filter".
type Options struct {
	Class         string  `json:"class,omitempty"`
	MinConfidence float64 `json:"min_confidence,omitempty"`
}

// Result is the engine's ranked answer. Images are best match first, in the
// engine's own order. Total equals len(Images) unless the engine truncated
// the result set server-side, in which case it is the true match count.
type Result struct {
	Images []models.Image `json:"results"`
	Total  int            `json:"total"`
}

// Engine is the opaque similarity search backend. Implementations must
// honor ctx cancellation and return matches ranked best-first.
type Engine interface {
	Search(ctx context.Context, queryImage []byte, opts Options) (*Result, error)
}
