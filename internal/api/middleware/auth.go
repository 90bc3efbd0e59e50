package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hugh/go-folio/internal/api/dto"
	"github.com/hugh/go-folio/internal/auth"
	"github.com/hugh/go-folio/internal/database/models"
)

type contextKey string

const UserKey contextKey = "user"

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "session_token"

// TokenFromRequest returns the presented session token. The cookie wins over
// the Authorization header when a client sends both.
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

// Auth resolves the session before the wrapped handler runs. Every auth
// failure gets the same 401 and a store fault gets a 500; neither reaches
// the handler.
func Auth(sessions auth.SessionResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := sessions.Resolve(r.Context(), TokenFromRequest(r))
			if err != nil {
				if errors.Is(err, auth.ErrNotAuthenticated) {
					logger.Debug("request not authenticated", "path", r.URL.Path, "reason", err.Error())
					writeError(w, http.StatusUnauthorized, "Not authenticated")
					return
				}
				logger.Error("session lookup failed", "path", r.URL.Path, "error", err)
				writeError(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser returns the authenticated user, or nil outside the Auth middleware.
func GetUser(ctx context.Context) *models.User {
	if user, ok := ctx.Value(UserKey).(*models.User); ok {
		return user
	}
	return nil
}

func GetUserID(ctx context.Context) string {
	if user := GetUser(ctx); user != nil {
		return user.ID
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: msg})
}
