package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"

	"gorm.io/gorm"

	"github.com/visra-dev/visrabackend/export"
	"github.com/visra-dev/visrabackend/history"
	"github.com/visra-dev/visrabackend/media"
	"github.com/visra-dev/visrabackend/models"
	"github.com/visra-dev/visrabackend/repository"
)

type ExportHandler struct {
	Pipeline *export.Pipeline
	Ledger   *history.Ledger
	Store    media.Store
	Logs     repository.ActivityLogRepository
}

func NewExportHandler(pipeline *export.Pipeline, ledger *history.Ledger, store media.Store, logs repository.ActivityLogRepository) *ExportHandler {
	return &ExportHandler{Pipeline: pipeline, Ledger: ledger, Store: store, Logs: logs}
}

// HandleExport renders the caller's search history (or a single entry when
// ?entry= is given) in the requested format and streams the finished
// artifact back as a download.
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r)
	if user == nil {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "user not found in context")
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = export.FormatJSON
	}

	entries, err := h.collectEntries(user.ID, r.URL.Query().Get("entry"))
	if err != nil {
		WriteCoreError(w, err)
		return
	}

	relPath, contentType, err := h.Pipeline.Run(format, entries)
	if err != nil {
		recordActivity(h.Logs, user.ID, "export", err.Error(), models.LogStatusError)
		WriteCoreError(w, err)
		return
	}
	recordActivity(h.Logs, user.ID, "export", format, models.LogStatusSuccess)

	file, info, err := h.Store.Get(relPath)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "export_failed", "failed to read export artifact")
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(relPath)))
	io.Copy(w, file)
}

func (h *ExportHandler) collectEntries(userID uint, entryID string) ([]models.SearchEntry, error) {
	if entryID == "" {
		entries, err := h.Ledger.List(userID)
		if err != nil {
			// an overlay-only read still exports what is visible
			if _, ok := err.(*history.PersistenceWarning); ok {
				return entries, nil
			}
			return nil, err
		}
		return entries, nil
	}

	entry, err := h.Ledger.Get(entryID)
	if err != nil {
		return nil, err
	}
	if entry.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return []models.SearchEntry{*entry}, nil
}
