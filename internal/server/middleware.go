package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type ctxKey int

const ctxKeyUserID ctxKey = iota

// authMiddleware resolves the Bearer session token to a user id and
// stashes it in the request context. Requests without a valid session
// are rejected.
func authMiddleware(store Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			token, found := strings.CutPrefix(auth, "Bearer ")
			if !found || token == "" {
				writeError(w, http.StatusUnauthorized, "invalid or missing session token")
				return
			}

			userID, err := store.UserFromToken(r.Context(), token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or missing session token")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUserID, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authedUser(r *http.Request) string {
	return r.Context().Value(ctxKeyUserID).(string)
}

// pathUser returns the {userID} route param, verifying it matches the
// authenticated identity. ok is false after writing the 403.
func pathUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := chi.URLParam(r, "userID")
	if userID != authedUser(r) {
		writeError(w, http.StatusForbidden, "cannot act for another user")
		return "", false
	}
	return userID, true
}
