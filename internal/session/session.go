// Package session resolves bearer tokens to record owners for the remote
// persistence variant. Without a session no data access is attempted: the
// middleware rejects the request before any handler runs.
package session

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

type ctxKey string

const ownerKey ctxKey = "ownerID"

// Resolver maps a bearer token to the owning user id.
type Resolver interface {
	ResolveToken(ctx context.Context, token string) (ownerID string, err error)
}

// WithOwner returns a context scoped to the given owner.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey, ownerID)
}

// OwnerFromContext returns the session owner, if any.
func OwnerFromContext(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(ownerKey).(string)
	if !ok || owner == "" {
		return "", false
	}
	return owner, true
}

// Middleware authenticates requests with a bearer token, falling back to a
// "token" query parameter, and stores the resolved owner in the request
// context. Unresolvable requests get 401.
func Middleware(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
				token = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			}
			if token == "" {
				token = r.URL.Query().Get("token")
			}
			if token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			owner, err := resolver.ResolveToken(r.Context(), token)
			if err != nil {
				slog.WarnContext(r.Context(), "Token resolution failed", "error", err)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), owner)))
		})
	}
}
