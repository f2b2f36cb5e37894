package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/visra-dev/visrabackend/models"
	"github.com/visra-dev/visrabackend/repository"
)

type AdminHandler struct {
	Users repository.UserRepository
	Logs  repository.ActivityLogRepository
}

func NewAdminHandler(users repository.UserRepository, logs repository.ActivityLogRepository) *AdminHandler {
	return &AdminHandler{Users: users, Logs: logs}
}

// ListUsers returns all accounts.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.ListAll()
	if err != nil {
		WriteCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type updateUserPayload struct {
	Role   *string `json:"role"`
	Active *bool   `json:"active"`
}

// UpdateUser changes an account's role or active flag. Admins cannot
// deactivate or demote themselves.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	caller := UserFromContext(r)
	if caller == nil {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "user not found in context")
		return
	}

	targetID, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "invalid user ID")
		return
	}

	var payload updateUserPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "invalid request payload")
		return
	}

	user, err := h.Users.GetByID(uint(targetID))
	if err != nil {
		WriteCoreError(w, err)
		return
	}

	if payload.Role != nil {
		if *payload.Role != models.RoleAdmin && *payload.Role != models.RoleUser {
			WriteAPIError(w, http.StatusBadRequest, "invalid_role", fmt.Sprintf("unknown role '%s'", *payload.Role))
			return
		}
		if user.ID == caller.ID && *payload.Role != models.RoleAdmin {
			WriteAPIError(w, http.StatusForbidden, "forbidden", "cannot change your own role")
			return
		}
		user.Role = *payload.Role
	}
	if payload.Active != nil {
		if user.ID == caller.ID && !*payload.Active {
			WriteAPIError(w, http.StatusForbidden, "forbidden", "cannot deactivate your own account")
			return
		}
		user.Active = *payload.Active
	}

	if err := h.Users.Update(user); err != nil {
		WriteCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ListLogs returns audit log entries, newest first, with optional filters.
func (h *AdminHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	var filter repository.ActivityLogFilter
	q := r.URL.Query()
	filter.Action = q.Get("action")
	filter.Status = q.Get("status")
	if raw := q.Get("user_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "user_id must be an integer")
			return
		}
		filter.UserID = uint(id)
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "limit must be an integer")
			return
		}
		filter.Limit = limit
	}

	logs, err := h.Logs.List(filter)
	if err != nil {
		WriteCoreError(w, err)
		return
	}
	if logs == nil {
		logs = []models.ActivityLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}
