// Package geoquest defines the core domain types and constants shared by
// the engine, the store and the HTTP surface. It imports nothing but time.
package geoquest

import "time"

// CoordEpsilon is the per-axis tolerance used when comparing coordinates
// that may have round-tripped through text transport.
const CoordEpsilon = 1e-9

// DefaultCompletionRadiusMeters is how close a logged fix must be to a
// location for it to count as visited.
const DefaultCompletionRadiusMeters = 15

type Coordinate struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// Equal reports whether both axes agree within CoordEpsilon.
func (c Coordinate) Equal(o Coordinate) bool {
	return abs(c.Lng-o.Lng) <= CoordEpsilon && abs(c.Lat-o.Lat) <= CoordEpsilon
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// Location is a checkpoint: a point of interest with a reward value.
type Location struct {
	ID          string
	Name        string
	Coordinate  Coordinate
	Points      int
	Description string
}

// Mission is a named, ordered collection of locations. The ordering is a
// display hint — quests complete locations in any order.
type Mission struct {
	ID        string
	Name      string
	Hidden    bool
	Locations []Location
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Quest is one user's attempt at a mission.
type Quest struct {
	ID            string
	UserID        string
	MissionID     string
	AwardedPoints int
	Finished      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type TransactionType string

const (
	TransactionEarned TransactionType = "earned"
	TransactionUsed   TransactionType = "used"
)

// PointsTransaction is one row of the append-only points ledger.
// Points is always positive; the type carries the sign.
type PointsTransaction struct {
	ID          string
	UserID      string
	QuestID     string
	Type        TransactionType
	Points      int
	Description string
	CreatedAt   time.Time
}

// User carries the cached running points total, reconcilable at any time
// from the ledger as earned minus used.
type User struct {
	ID          string
	TotalPoints int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
