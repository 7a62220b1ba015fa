package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taipeigo/geoquest/internal/geoquest"
	"github.com/taipeigo/geoquest/internal/quest"
)

type LocationItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Lng         float64 `json:"lng"`
	Lat         float64 `json:"lat"`
	Points      int     `json:"points"`
	Description string  `json:"description,omitempty"`
}

type MissionItem struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Locations []LocationItem `json:"locations"`
}

type MissionsListResponse struct {
	Missions []MissionItem `json:"missions"`
}

type MissionDetailResponse struct {
	Mission MissionItem `json:"mission"`
}

func toLocationItems(locs []geoquest.Location) []LocationItem {
	items := make([]LocationItem, len(locs))
	for i, l := range locs {
		items[i] = LocationItem{
			ID:          l.ID,
			Name:        l.Name,
			Lng:         l.Coordinate.Lng,
			Lat:         l.Coordinate.Lat,
			Points:      l.Points,
			Description: l.Description,
		}
	}
	return items
}

func toMissionItem(m geoquest.Mission) MissionItem {
	return MissionItem{ID: m.ID, Name: m.Name, Locations: toLocationItems(m.Locations)}
}

func handleMissionsList(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		missions, err := store.Missions(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		items := make([]MissionItem, len(missions))
		for i, m := range missions {
			items[i] = toMissionItem(m)
		}
		writeJSON(w, http.StatusOK, MissionsListResponse{Missions: items})
	}
}

func handleMissionDetail(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := store.Mission(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, quest.ErrMissionNotFound) {
			writeError(w, http.StatusNotFound, "mission not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, MissionDetailResponse{Mission: toMissionItem(m)})
	}
}
