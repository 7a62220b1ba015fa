package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/taipeigo/geoquest/internal/geoquest"
)

type UserResponse struct {
	ID          string `json:"id"`
	TotalPoints int    `json:"total_points"`
	CreatedAt   string `json:"created_at"`
}

func handleUser(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := pathUser(w, r)
		if !ok {
			return
		}

		u, err := store.User(r.Context(), userID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, UserResponse{
			ID:          u.ID,
			TotalPoints: u.TotalPoints,
			CreatedAt:   u.CreatedAt.Format(time.RFC3339),
		})
	}
}

type TransactionItem struct {
	ID          string `json:"id"`
	QuestID     string `json:"quest_id,omitempty"`
	Type        string `json:"type"`
	Points      int    `json:"points"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type TransactionsResponse struct {
	Transactions []TransactionItem `json:"transactions"`
}

func handleTransactions(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := pathUser(w, r)
		if !ok {
			return
		}

		kind := geoquest.TransactionType(r.URL.Query().Get("type"))
		switch kind {
		case "", geoquest.TransactionEarned, geoquest.TransactionUsed:
		default:
			writeError(w, http.StatusBadRequest, "type must be earned or used")
			return
		}

		txs, err := store.Transactions(r.Context(), userID, kind, 50)
		if err != nil {
			logger.Error("listing transactions", "user_id", userID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		items := make([]TransactionItem, len(txs))
		for i, t := range txs {
			items[i] = TransactionItem{
				ID:          t.ID,
				QuestID:     t.QuestID,
				Type:        string(t.Type),
				Points:      t.Points,
				Description: t.Description,
				CreatedAt:   t.CreatedAt.Format(time.RFC3339),
			}
		}
		writeJSON(w, http.StatusOK, TransactionsResponse{Transactions: items})
	}
}
