package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taipeigo/geoquest/internal/geoquest"
	"github.com/taipeigo/geoquest/internal/quest"
)

type QuestOverviewResponse struct {
	QuestProgressResponse
	MissionID string                `json:"mission_id"`
	Path      []geoquest.Coordinate `json:"path"`
}

// handleQuestOverview reports the same progress shape as submit, derived
// entirely from stored state — no path in the request.
func handleQuestOverview(logger *slog.Logger, engine *quest.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := pathUser(w, r)
		if !ok {
			return
		}

		ov, err := engine.Overview(r.Context(), userID, chi.URLParam(r, "questID"))
		if err != nil {
			logError(logger, "building overview", err)
			writeQuestError(w, err)
			return
		}

		if ov.Path == nil {
			ov.Path = []geoquest.Coordinate{}
		}
		writeJSON(w, http.StatusOK, QuestOverviewResponse{
			QuestProgressResponse: toProgressResponse(ov.Progress),
			MissionID:             ov.MissionID,
			Path:                  ov.Path,
		})
	}
}
