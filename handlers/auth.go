package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/visra-dev/visrabackend/auth"
	"github.com/visra-dev/visrabackend/models"
	"github.com/visra-dev/visrabackend/repository"
)

type AuthHandler struct {
	Auth *auth.Service
	Logs repository.ActivityLogRepository
}

func NewAuthHandler(authService *auth.Service, logs repository.ActivityLogRepository) *AuthHandler {
	return &AuthHandler{Auth: authService, Logs: logs}
}

type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterPayload struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type RefreshPayload struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

// Login authenticates a credential pair and returns the full session:
// principal snapshot plus both tokens, established in a single step.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "invalid request payload")
		return
	}
	if payload.Email == "" || payload.Password == "" {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "email and password are required")
		return
	}

	session, err := h.Auth.Login(payload.Email, payload.Password)
	if err != nil {
		h.logAction(0, "login", fmt.Sprintf("failed login for %s", payload.Email), models.LogStatusError)
		WriteCoreError(w, err)
		return
	}

	h.logAction(session.UserID, "login", payload.Email, models.LogStatusSuccess)
	writeJSON(w, http.StatusOK, session)
}

// Register creates a new account and logs it in immediately.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "invalid request payload")
		return
	}
	if payload.Email == "" || payload.Password == "" {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "email and password are required")
		return
	}

	session, err := h.Auth.Register(payload.Email, payload.Password, payload.DisplayName)
	if err != nil {
		WriteCoreError(w, err)
		return
	}

	h.logAction(session.UserID, "register", payload.Email, models.LogStatusSuccess)
	writeJSON(w, http.StatusCreated, session)
}

// Refresh exchanges a refresh token for a new access token. The refresh
// token itself stays valid until logout.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var payload RefreshPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "invalid request payload")
		return
	}

	accessToken, err := h.Auth.Refresh(payload.RefreshToken)
	if err != nil {
		WriteCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RefreshResponse{AccessToken: accessToken})
}

// Logout destroys the caller's session. Repeating it is harmless.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r)
	if user == nil {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "user not found in context")
		return
	}

	if err := h.Auth.Logout(user.ID); err != nil {
		WriteCoreError(w, err)
		return
	}

	h.logAction(user.ID, "logout", user.Email, models.LogStatusSuccess)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated principal.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r)
	if user == nil {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "user not found in context")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) logAction(userID uint, action, details, status string) {
	recordActivity(h.Logs, userID, action, details, status)
}
