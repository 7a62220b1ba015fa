package server

import (
	"log/slog"
	"net/http"
	"strings"
)

type LoginRequest struct {
	ID string `json:"id"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

// handleLogin mints a 30-day session for the given user id, creating the
// user on first sight. No password: identity provisioning is external to
// this product.
func handleLogin(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.ID = strings.TrimSpace(req.ID)
		if req.ID == "" {
			writeError(w, http.StatusBadRequest, "id is required")
			return
		}

		token, err := store.Login(r.Context(), req.ID)
		if err != nil {
			logger.Error("creating session", "user_id", req.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, LoginResponse{Token: token})
	}
}
