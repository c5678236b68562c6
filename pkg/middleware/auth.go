package middleware

import (
	"context"
	"net/http"
)

type contextKey string

const userIDKey contextKey = "userID"

// UserIDHeader carries the authenticated user ID, set by the upstream auth
// gateway after it validates the session. This service trusts the header and
// only authorizes; it never authenticates.
const UserIDHeader = "X-User-Id"

// Auth extracts the authenticated user ID into the request context and
// rejects requests that arrive without one.
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(UserIDHeader)
		if userID == "" {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserID returns the authenticated user ID from the context, or "" when the
// request did not pass through Auth.
func UserID(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}
