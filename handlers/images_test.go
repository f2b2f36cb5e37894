package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
)

func multipartUpload(t *testing.T, field, filename string, size int) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile failed: %v", err)
	}
	if _, err := part.Write(bytes.Repeat([]byte{0x7f}, size)); err != nil {
		t.Fatalf("writing part failed: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("closing multipart writer failed: %v", err)
	}
	return body, writer.FormDataContentType()
}

func decodeAPIError(t *testing.T, rec *httptest.ResponseRecorder) APIErrorDetail {
	t.Helper()
	var resp APIErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding error response failed: %v", err)
	}
	if len(resp.Errors) != 1 {
		t.Fatalf("expected 1 error in the envelope, got %d", len(resp.Errors))
	}
	return resp.Errors[0]
}

func TestUploadRejectsOversizedBody(t *testing.T) {
	handler := NewImageHandler(nil, nil, nil, 1024)

	// large enough to trip the request body limit during multipart parsing
	body, contentType := multipartUpload(t, "image", "big.png", 16*1024)
	req := httptest.NewRequest(http.MethodPost, "/api/images", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Upload(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d", rec.Code)
	}
	if detail := decodeAPIError(t, rec); detail.Code != "upload_too_large" {
		t.Errorf("expected code upload_too_large, got %s", detail.Code)
	}
}

func TestUploadRejectsPayloadOverLimit(t *testing.T) {
	handler := NewImageHandler(nil, nil, nil, 1024)

	// fits under the body limit but exceeds the per-file limit
	body, contentType := multipartUpload(t, "image", "big.png", 3000)
	req := httptest.NewRequest(http.MethodPost, "/api/images", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Upload(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d", rec.Code)
	}
	if detail := decodeAPIError(t, rec); detail.Code != "upload_too_large" {
		t.Errorf("expected code upload_too_large, got %s", detail.Code)
	}
}

func TestUploadRejectsMissingField(t *testing.T) {
	handler := NewImageHandler(nil, nil, nil, 1024)

	body, contentType := multipartUpload(t, "wrong_field", "photo.png", 64)
	req := httptest.NewRequest(http.MethodPost, "/api/images", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Upload(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if detail := decodeAPIError(t, rec); detail.Code != "invalid_payload" {
		t.Errorf("expected code invalid_payload, got %s", detail.Code)
	}
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	handler := NewImageHandler(nil, nil, nil, 1024)

	body, contentType := multipartUpload(t, "image", "notes.txt", 64)
	req := httptest.NewRequest(http.MethodPost, "/api/images", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Upload(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected status 415, got %d", rec.Code)
	}
	if detail := decodeAPIError(t, rec); detail.Code != "unsupported_media_type" {
		t.Errorf("expected code unsupported_media_type, got %s", detail.Code)
	}
}
