package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/micro-nova/piconfig-go/internal/models"
)

const (
	sessionCookieName = "piconfig-session"
	apiKeyQueryParam  = "api-key"
)

type roleKey struct{}

var errForbidden = &models.AppError{Code: "FORBIDDEN", Message: "this key is read-only", Status: http.StatusForbidden}

// Middleware returns an http.Handler middleware that enforces authentication.
// In open mode every request passes as admin. Otherwise the key is taken from
// an Authorization bearer token, the session cookie or the api-key query
// parameter (EventSource cannot set headers). Viewer keys may only issue
// GET and HEAD requests.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.IsOpenMode() {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), roleKey{}, RoleAdmin)))
			return
		}

		role, ok := s.Lookup(requestKey(r))
		if !ok {
			writeAuthError(w, models.ErrUnauthorized)
			return
		}
		if role != RoleAdmin && r.Method != http.MethodGet && r.Method != http.MethodHead {
			writeAuthError(w, errForbidden)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), roleKey{}, role)))
	})
}

// RoleFrom returns the role the middleware attached to ctx.
func RoleFrom(ctx context.Context) (Role, bool) {
	role, ok := ctx.Value(roleKey{}).(Role)
	return role, ok
}

func requestKey(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}
	return r.URL.Query().Get(apiKeyQueryParam)
}

func writeAuthError(w http.ResponseWriter, e *models.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	json.NewEncoder(w).Encode(e)
}
