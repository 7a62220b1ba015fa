package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taipeigo/geoquest/internal/geoquest"
	"github.com/taipeigo/geoquest/internal/quest"
)

type SubmitQuestRequest struct {
	// Paths is the client's entire locally-known path since quest start,
	// not a delta.
	Paths []geoquest.Coordinate `json:"paths"`
}

type QuestProgressResponse struct {
	Points               int      `json:"points"`
	CompletedLocationIDs []string `json:"completed_location_ids"`
	DistanceMeters       float64  `json:"distance_meters"`
	TimeSpent            string   `json:"time_spent"`
	Finished             bool     `json:"finished"`
}

func toProgressResponse(p quest.Progress) QuestProgressResponse {
	if p.CompletedLocationIDs == nil {
		p.CompletedLocationIDs = []string{}
	}
	return QuestProgressResponse{
		Points:               p.Points,
		CompletedLocationIDs: p.CompletedLocationIDs,
		DistanceMeters:       p.DistanceMeters,
		TimeSpent:            p.TimeSpent,
		Finished:             p.Finished,
	}
}

func handleQuestSubmit(logger *slog.Logger, engine *quest.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := pathUser(w, r)
		if !ok {
			return
		}

		var req SubmitQuestRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if len(req.Paths) == 0 {
			writeError(w, http.StatusBadRequest, "paths is required")
			return
		}

		p, err := engine.Submit(r.Context(), userID, chi.URLParam(r, "questID"), req.Paths)
		if err != nil {
			logError(logger, "submitting path", err)
			writeQuestError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toProgressResponse(p))
	}
}
