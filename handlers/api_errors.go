package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/visra-dev/visrabackend/auth"
	"github.com/visra-dev/visrabackend/export"
	"github.com/visra-dev/visrabackend/search"
)

// APIErrorDetail represents a single error in the standardized error response.
type APIErrorDetail struct {
	Code   string `json:"code"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// APIErrorResponse represents the standardized error response body.
type APIErrorResponse struct {
	Errors []APIErrorDetail `json:"errors"`
}

// WriteAPIError writes a standardized error response with the given HTTP status, code, and detail.
func WriteAPIError(w http.ResponseWriter, httpStatus int, code string, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	resp := APIErrorResponse{
		Errors: []APIErrorDetail{
			{
				Code:   code,
				Status: strconv.Itoa(httpStatus),
				Detail: detail,
			},
		},
	}

	_ = json.NewEncoder(w).Encode(resp)
}

// WriteCoreError maps core errors onto the response envelope. Every mapped
// error is scoped to the failed operation; none is fatal to the process.
func WriteCoreError(w http.ResponseWriter, err error) {
	var exportErr *export.FailedError
	switch {
	case errors.Is(err, auth.ErrAuthentication):
		WriteAPIError(w, http.StatusUnauthorized, "authentication_failed", err.Error())
	case errors.Is(err, auth.ErrConflict):
		WriteAPIError(w, http.StatusConflict, "email_conflict", err.Error())
	case errors.Is(err, search.ErrUploadTooLarge):
		WriteAPIError(w, http.StatusRequestEntityTooLarge, "upload_too_large", err.Error())
	case errors.Is(err, search.ErrUnsupportedMediaType):
		WriteAPIError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", err.Error())
	case errors.Is(err, search.ErrSuperseded):
		WriteAPIError(w, http.StatusConflict, "search_superseded", err.Error())
	case errors.As(err, &exportErr):
		WriteAPIError(w, http.StatusInternalServerError, "export_failed", exportErr.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		WriteAPIError(w, http.StatusNotFound, "not_found", "resource not found")
	default:
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
