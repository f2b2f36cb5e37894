package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/visra-dev/visrabackend/database"
	"github.com/visra-dev/visrabackend/media"
	"github.com/visra-dev/visrabackend/models"
	"github.com/visra-dev/visrabackend/repository"
	"github.com/visra-dev/visrabackend/workers"
)

type ImageHandler struct {
	Images         repository.ImageRepository
	Ingestor       *workers.Ingestor
	Logs           repository.ActivityLogRepository
	MaxUploadBytes int64
}

func NewImageHandler(images repository.ImageRepository, ingestor *workers.Ingestor, logs repository.ActivityLogRepository, maxUploadBytes int64) *ImageHandler {
	return &ImageHandler{Images: images, Ingestor: ingestor, Logs: logs, MaxUploadBytes: maxUploadBytes}
}

type uploadResponse struct {
	Image *models.Image `json:"image"`
}

type importResponse struct {
	Imported int `json:"imported"`
}

// Upload accepts a multipart image, stores it and queues annotation. The
// response is the queued record; annotation completes asynchronously.
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes+4096)

	file, header, err := r.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			WriteAPIError(w, http.StatusRequestEntityTooLarge, "upload_too_large", "upload exceeds the size limit")
			return
		}
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "multipart field 'image' is required")
		return
	}
	defer file.Close()

	if !media.IsRasterImage(header.Filename) {
		WriteAPIError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", fmt.Sprintf("'%s' is not a supported image", header.Filename))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			WriteAPIError(w, http.StatusRequestEntityTooLarge, "upload_too_large", "upload exceeds the size limit")
			return
		}
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "failed to read uploaded file")
		return
	}
	if int64(len(data)) > h.MaxUploadBytes {
		WriteAPIError(w, http.StatusRequestEntityTooLarge, "upload_too_large", fmt.Sprintf("upload exceeds the %d byte limit", h.MaxUploadBytes))
		return
	}

	user := UserFromContext(r)
	img, err := h.Ingestor.Ingest(header.Filename, bytes.NewReader(data), workers.SourceUpload)
	if err != nil {
		if user != nil {
			recordActivity(h.Logs, user.ID, "image_upload", err.Error(), models.LogStatusError)
		}
		WriteAPIError(w, http.StatusInternalServerError, "ingest_failed", "failed to store uploaded image")
		return
	}
	if user != nil {
		recordActivity(h.Logs, user.ID, "image_upload", header.Filename, models.LogStatusSuccess)
	}
	writeJSON(w, http.StatusAccepted, uploadResponse{Image: img})
}

// ImportArchive ingests every raster image found in an uploaded ZIP.
func (h *ImageHandler) ImportArchive(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("archive")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "multipart field 'archive' is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "failed to read uploaded archive")
		return
	}

	user := UserFromContext(r)
	count, err := h.Ingestor.ImportArchive(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if user != nil {
			recordActivity(h.Logs, user.ID, "archive_import", err.Error(), models.LogStatusError)
		}
		WriteAPIError(w, http.StatusBadRequest, "invalid_archive", "failed to read archive contents")
		return
	}
	if user != nil {
		recordActivity(h.Logs, user.ID, "archive_import", fmt.Sprintf("%d image(s)", count), models.LogStatusSuccess)
	}
	writeJSON(w, http.StatusAccepted, importResponse{Imported: count})
}

// List returns images, optionally filtered by source and status and ordered
// by the requested sort.
func (h *ImageHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repository.ImageFilter{
		Source: r.URL.Query().Get("source"),
		Status: r.URL.Query().Get("status"),
		Sort:   r.URL.Query().Get("sort"),
	}
	if filter.Sort == "" {
		filter.Sort = database.DefaultSortOrder
	}
	if !database.IsValidSortOrder(filter.Sort) {
		WriteAPIError(w, http.StatusBadRequest, "invalid_sort", fmt.Sprintf("unknown sort order '%s'", filter.Sort))
		return
	}
	if filter.Status != "" && !database.IsValidStatus(filter.Status) {
		WriteAPIError(w, http.StatusBadRequest, "invalid_status", fmt.Sprintf("unknown status '%s'", filter.Status))
		return
	}

	images, err := h.Images.List(filter)
	if err != nil {
		WriteCoreError(w, err)
		return
	}
	if images == nil {
		images = []models.Image{}
	}
	writeJSON(w, http.StatusOK, images)
}

// Get returns one image with its detections.
func (h *ImageHandler) Get(w http.ResponseWriter, r *http.Request) {
	img, err := h.Images.GetByID(chi.URLParam(r, "id"))
	if err != nil {
		WriteCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, img)
}

// ListDetections returns detections across all images, optionally narrowed
// by class and minimum confidence.
func (h *ImageHandler) ListDetections(w http.ResponseWriter, r *http.Request) {
	filter := repository.DetectionFilter{
		Class: r.URL.Query().Get("class"),
	}
	if raw := r.URL.Query().Get("min_confidence"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 1 {
			WriteAPIError(w, http.StatusBadRequest, "invalid_confidence", "min_confidence must be a number between 0 and 1")
			return
		}
		filter.MinConfidence = v
	}

	detections, err := h.Images.ListDetections(filter)
	if err != nil {
		WriteCoreError(w, err)
		return
	}
	if detections == nil {
		detections = []models.Detection{}
	}
	writeJSON(w, http.StatusOK, detections)
}
