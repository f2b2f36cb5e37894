package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"
)

// RemoteEngine talks to an external similarity search service over HTTP:
// the query image is posted as multipart form data together with the filter
// fields, and the service answers with the ranked result document.
type RemoteEngine struct {
	endpoint string
	client   *http.Client
}

func NewRemoteEngine(endpoint string) *RemoteEngine {
	return &RemoteEngine{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 120 * time.Second},
	}
}

func (e *RemoteEngine) Search(ctx context.Context, queryImage []byte, opts Options) (*Result, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("image", "query")
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(queryImage); err != nil {
		return nil, fmt.Errorf("failed to write query image: %w", err)
	}
	if opts.Class != "" {
		if err := writer.WriteField("class", opts.Class); err != nil {
			return nil, fmt.Errorf("failed to write class field: %w", err)
		}
	}
	if opts.MinConfidence > 0 {
		if err := writer.WriteField("min_confidence", strconv.FormatFloat(opts.MinConfidence, 'f', -1, 64)); err != nil {
			return nil, fmt.Errorf("failed to write min_confidence field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build engine request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("engine request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("engine returned status %d: %s", resp.StatusCode, snippet)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode engine response: %w", err)
	}
	return &result, nil
}
