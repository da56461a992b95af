// Package middleware holds the HTTP middleware chain: bearer-token
// authentication, request logging and Prometheus metrics.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/webdeskhq/webdesk/internal/server/auth"
)

// contextKey is a private type so context values cannot collide with
// other packages.
type contextKey string

const userIDKey contextKey = "user_id"

// UserID extracts the authenticated user id placed into the request
// context by Auth. The second return is false for unauthenticated
// contexts.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// WithUserID returns a context carrying the given user id; used by
// handler tests to simulate an authenticated request.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// Auth verifies the Authorization bearer token (HS256) and stores the
// subject user id in the request context. Requests without a valid token
// get a 401 with the standard error body.
func Auth(secretKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeUnauthorized(w, "missing bearer token")
				return
			}

			userID, err := auth.GetUserIDFromToken(token, secretKey)
			if err != nil {
				writeUnauthorized(w, "invalid or expired token")
				return
			}

			ctx := WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"message": message,
		"code":    "unauthorized",
		"type":    "auth",
	})
}
