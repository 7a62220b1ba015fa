package server

import "net/http"

type LocationsListResponse struct {
	Locations []LocationItem `json:"locations"`
}

func handleLocationsList(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		locs, err := store.Locations(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, LocationsListResponse{Locations: toLocationItems(locs)})
	}
}
