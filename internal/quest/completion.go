package quest

import (
	"sort"

	"github.com/taipeigo/geoquest/internal/geo"
	"github.com/taipeigo/geoquest/internal/geoquest"
)

// CompletedLocations returns the ids of mission locations that some path
// point comes within radiusMeters of, ordered by the index of the first
// visiting point. It is pure: replaying it over the same path and mission
// always yields the same answer.
func CompletedLocations(path []geoquest.Coordinate, mission geoquest.Mission, radiusMeters float64) []string {
	type visit struct {
		id    string
		index int
	}

	var visits []visit
	for _, loc := range mission.Locations {
		for i, p := range path {
			if geo.WithinDistance(p, loc.Coordinate, radiusMeters) {
				visits = append(visits, visit{id: loc.ID, index: i})
				break
			}
		}
	}

	// Stable keeps mission order for locations first reached by the same
	// path point.
	sort.SliceStable(visits, func(i, j int) bool {
		return visits[i].index < visits[j].index
	})

	ids := make([]string, len(visits))
	for i, v := range visits {
		ids[i] = v.id
	}
	return ids
}

// MissionComplete reports whether every location of the mission has been
// visited. A mission with no locations is never complete, so a
// misconfigured mission cannot finish trivially.
func MissionComplete(path []geoquest.Coordinate, mission geoquest.Mission, radiusMeters float64) bool {
	if len(mission.Locations) == 0 {
		return false
	}
	return len(CompletedLocations(path, mission, radiusMeters)) == len(mission.Locations)
}
