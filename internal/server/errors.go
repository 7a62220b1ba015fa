package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/taipeigo/geoquest/internal/quest"
)

// writeQuestError maps engine errors onto HTTP statuses. A path conflict
// is deliberately loud: the quest's recorded progress diverges from what
// the device holds locally, the attempt cannot continue, and the only
// safe recovery is starting a new quest.
func writeQuestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quest.ErrMissionNotFound):
		writeError(w, http.StatusNotFound, "mission not found")
	case errors.Is(err, quest.ErrQuestNotFound):
		writeError(w, http.StatusNotFound, "quest not found")
	case errors.Is(err, quest.ErrNotOwner):
		writeError(w, http.StatusForbidden, "quest belongs to another user")
	case errors.Is(err, quest.ErrPathConflict):
		writeError(w, http.StatusConflict,
			"recorded progress conflicts with this device's path; start a new quest")
	case errors.Is(err, quest.ErrPathOutdated):
		writeError(w, http.StatusConflict, "path changed concurrently, retry the submission")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// logError records failures that are not ordinary client outcomes.
func logError(logger *slog.Logger, msg string, err error) {
	for _, expected := range []error{
		quest.ErrMissionNotFound, quest.ErrQuestNotFound,
		quest.ErrNotOwner, quest.ErrPathConflict,
	} {
		if errors.Is(err, expected) {
			return
		}
	}
	logger.Error(msg, "error", err)
}
