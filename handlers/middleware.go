package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/visra-dev/visrabackend/auth"
	"github.com/visra-dev/visrabackend/models"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

// UserContextKey is the key used to store the user object in the request context.
const UserContextKey ContextKey = "user"

// AuthMiddleware verifies the bearer token and, if valid, loads the
// principal into the request context.
func AuthMiddleware(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				WriteAPIError(w, http.StatusUnauthorized, "authentication_required", "Authorization header required")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				WriteAPIError(w, http.StatusUnauthorized, "authentication_required", "Authorization header format must be Bearer {token}")
				return
			}

			userID, err := authService.ParseAccessToken(parts[1])
			if err != nil {
				WriteAPIError(w, http.StatusUnauthorized, "authentication_failed", "invalid or expired token")
				return
			}

			user, err := authService.GetUser(userID)
			if err != nil {
				// the user may have been deleted after the token was issued
				WriteAPIError(w, http.StatusUnauthorized, "authentication_failed", "user not found")
				return
			}
			if !user.Active {
				WriteAPIError(w, http.StatusForbidden, "account_disabled", "account is disabled")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin restricts a route to admin principals. Use after AuthMiddleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r)
		if user == nil {
			WriteAPIError(w, http.StatusInternalServerError, "internal_error", "user not found in context")
			return
		}
		if !user.IsAdmin() {
			WriteAPIError(w, http.StatusForbidden, "forbidden", "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserFromContext returns the authenticated principal, or nil outside
// AuthMiddleware.
func UserFromContext(r *http.Request) *models.User {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}
