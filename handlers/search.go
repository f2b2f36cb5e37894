package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/visra-dev/visrabackend/history"
	"github.com/visra-dev/visrabackend/models"
	"github.com/visra-dev/visrabackend/repository"
	"github.com/visra-dev/visrabackend/search"
)

type SearchHandler struct {
	Search *search.Service
	Logs   repository.ActivityLogRepository
}

func NewSearchHandler(searchService *search.Service, logs repository.ActivityLogRepository) *SearchHandler {
	return &SearchHandler{Search: searchService, Logs: logs}
}

type searchResponse struct {
	Entry   *models.SearchEntry `json:"entry"`
	Warning string              `json:"warning,omitempty"`
}

// HandleSearch accepts a multipart query image, runs the search and returns
// the resulting history entry. Unknown query parameters are ignored.
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r)
	if user == nil {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "user not found in context")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "multipart field 'image' is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "failed to read uploaded image")
		return
	}

	opts := searchOptionsFromQuery(r)
	entry, err := h.Search.Search(r.Context(), user.ID, header.Filename, data, opts)

	var warn *history.PersistenceWarning
	if errors.As(err, &warn) {
		// the search itself succeeded; surface the durability problem
		recordActivity(h.Logs, user.ID, "search", header.Filename, models.LogStatusSuccess)
		writeJSON(w, http.StatusOK, searchResponse{Entry: entry, Warning: warn.Error()})
		return
	}
	if err != nil {
		recordActivity(h.Logs, user.ID, "search", err.Error(), models.LogStatusError)
		WriteCoreError(w, err)
		return
	}
	recordActivity(h.Logs, user.ID, "search", header.Filename, models.LogStatusSuccess)
	writeJSON(w, http.StatusOK, searchResponse{Entry: entry})
}

func searchOptionsFromQuery(r *http.Request) search.Options {
	var opts search.Options
	opts.Class = r.URL.Query().Get("class")
	if raw := r.URL.Query().Get("min_confidence"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v >= 0 && v <= 1 {
			opts.MinConfidence = v
		}
	}
	return opts
}
