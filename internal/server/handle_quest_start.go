package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/taipeigo/geoquest/internal/quest"
)

type StartQuestRequest struct {
	MissionID string `json:"mission_id"`
}

type StartQuestResponse struct {
	QuestID string `json:"quest_id"`
}

func handleQuestStart(logger *slog.Logger, engine *quest.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := pathUser(w, r)
		if !ok {
			return
		}

		var req StartQuestRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.MissionID = strings.TrimSpace(req.MissionID)
		if req.MissionID == "" {
			writeError(w, http.StatusBadRequest, "mission_id is required")
			return
		}

		q, err := engine.Start(r.Context(), userID, req.MissionID)
		if err != nil {
			logError(logger, "starting quest", err)
			writeQuestError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, StartQuestResponse{QuestID: q.ID})
	}
}
