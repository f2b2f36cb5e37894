package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// RemoteEmbedder obtains feature vectors from the same external service the
// remote engine uses, at its /embed endpoint. The image bytes are posted
// raw; the response is a JSON document with an "embedding" array.
type RemoteEmbedder string

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

var embedClient = &http.Client{Timeout: 60 * time.Second}

func (e RemoteEmbedder) Embed(ctx context.Context, image []byte) ([]float32, error) {
	endpoint := strings.TrimSuffix(string(e), "/search") + "/embed"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("failed to build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := embedClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embedder returned status %d: %s", resp.StatusCode, snippet)
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode embed response: %w", err)
	}
	if len(parsed.Embedding) == 0 {
		return nil, fmt.Errorf("embedder returned an empty vector")
	}
	return parsed.Embedding, nil
}
