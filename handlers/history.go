package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/visra-dev/visrabackend/history"
	"github.com/visra-dev/visrabackend/models"
)

type HistoryHandler struct {
	Ledger *history.Ledger
}

func NewHistoryHandler(ledger *history.Ledger) *HistoryHandler {
	return &HistoryHandler{Ledger: ledger}
}

type historyResponse struct {
	Entries []models.SearchEntry `json:"entries"`
	Warning string               `json:"warning,omitempty"`
}

// ListHistory returns the caller's search history, most recent first.
func (h *HistoryHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r)
	if user == nil {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "user not found in context")
		return
	}

	entries, err := h.Ledger.List(user.ID)

	var warn *history.PersistenceWarning
	if errors.As(err, &warn) {
		writeJSON(w, http.StatusOK, historyResponse{Entries: entries, Warning: warn.Error()})
		return
	}
	if err != nil {
		WriteCoreError(w, err)
		return
	}
	if entries == nil {
		entries = []models.SearchEntry{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Entries: entries})
}

// GetHistoryEntry returns a single entry by its public identifier. Entries
// belonging to other users are reported as not found.
func (h *HistoryHandler) GetHistoryEntry(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r)
	if user == nil {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "user not found in context")
		return
	}

	publicID := chi.URLParam(r, "id")
	entry, err := h.Ledger.Get(publicID)
	if err != nil {
		WriteCoreError(w, err)
		return
	}
	if entry.UserID != user.ID {
		WriteAPIError(w, http.StatusNotFound, "not_found", "history entry not found")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
