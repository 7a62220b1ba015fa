// Package quest implements the quest tracking engine: the append-only
// path log with prefix validation, proximity completion detection, and
// the exactly-once points ledger reconciliation.
package quest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/taipeigo/geoquest/internal/duration"
	"github.com/taipeigo/geoquest/internal/geo"
	"github.com/taipeigo/geoquest/internal/geoquest"
)

var (
	// ErrMissionNotFound means the referenced mission id does not exist.
	ErrMissionNotFound = errors.New("mission not found")
	// ErrQuestNotFound means the referenced quest id does not exist.
	ErrQuestNotFound = errors.New("quest not found")
	// ErrNotOwner means the requesting user does not own the quest.
	ErrNotOwner = errors.New("quest belongs to another user")
	// ErrPathConflict means the submitted path diverges from recorded
	// history. This is a data-integrity signal, never auto-resolved: the
	// attempt cannot continue and the user must start a new quest.
	ErrPathConflict = errors.New("submitted path conflicts with recorded path")
	// ErrPathOutdated means a concurrent writer extended the path between
	// our read and our append. The caller may retry with the same path.
	ErrPathOutdated = errors.New("path changed concurrently")
)

// Store is the persistence the engine needs for quests, paths and the
// points ledger. Implementations map missing rows to ErrQuestNotFound
// and a lost append race to ErrPathOutdated.
type Store interface {
	CreateQuest(ctx context.Context, userID, missionID string) (geoquest.Quest, error)
	Quest(ctx context.Context, questID string) (geoquest.Quest, error)

	// Path returns the stored coordinates ordered by sequence.
	Path(ctx context.Context, questID string) ([]geoquest.Coordinate, error)
	// AppendPath appends suffix with dense sequence orders starting at
	// expectedLen, failing with ErrPathOutdated unless the stored path
	// still has exactly expectedLen entries.
	AppendPath(ctx context.Context, questID string, expectedLen int, suffix []geoquest.Coordinate) error

	// ApplyScore atomically sets the quest's awarded points and finished
	// flag, adjusts the owner's cached balance by delta, and, when delta
	// is nonzero, appends one ledger transaction of |delta| points.
	ApplyScore(ctx context.Context, q geoquest.Quest, points, delta int, finished bool, description string) error
}

// MissionStore is the external mission lookup collaborator.
type MissionStore interface {
	Mission(ctx context.Context, missionID string) (geoquest.Mission, error)
}

// Progress is the derived state of a quest after a submission or query.
type Progress struct {
	Points               int
	CompletedLocationIDs []string
	DistanceMeters       float64
	TimeSpent            string
	Finished             bool
	Appended             bool
}

// Overview is Progress plus the stored path and owning mission.
type Overview struct {
	Progress
	MissionID string
	Path      []geoquest.Coordinate
}

type Engine struct {
	store    Store
	missions MissionStore
	radius   float64
	logger   *slog.Logger
	locks    *questLocks
	now      func() time.Time
}

func NewEngine(logger *slog.Logger, store Store, missions MissionStore, radiusMeters float64) *Engine {
	if radiusMeters <= 0 {
		radiusMeters = geoquest.DefaultCompletionRadiusMeters
	}
	return &Engine{
		store:    store,
		missions: missions,
		radius:   radiusMeters,
		logger:   logger,
		locks:    newQuestLocks(),
		now:      time.Now,
	}
}

// Start creates a new quest for the user on the given mission. A user may
// hold any number of open quests, including several on the same mission —
// each quest's path and score are self-contained.
func (e *Engine) Start(ctx context.Context, userID, missionID string) (geoquest.Quest, error) {
	if _, err := e.missions.Mission(ctx, missionID); err != nil {
		return geoquest.Quest{}, err
	}

	q, err := e.store.CreateQuest(ctx, userID, missionID)
	if err != nil {
		return geoquest.Quest{}, fmt.Errorf("creating quest: %w", err)
	}

	e.logger.Info("quest started", "quest_id", q.ID, "user_id", userID, "mission_id", missionID)
	return q, nil
}

// Submit records the client's full known path for the quest. The stored
// path must be a prefix of the candidate (within geoquest.CoordEpsilon per
// axis); only the new suffix is appended. It then re-derives completion
// and reconciles awarded points, flipping the quest to finished when every
// mission location has been visited. Resubmitting an already-acknowledged
// path is a no-op that returns the same progress.
func (e *Engine) Submit(ctx context.Context, userID, questID string, candidate []geoquest.Coordinate) (Progress, error) {
	mu := e.locks.get(questID)
	mu.Lock()
	defer mu.Unlock()

	// Loaded under the lock so awarded points can never be observed
	// stale by an overlapping submission.
	q, err := e.ownedQuest(ctx, userID, questID)
	if err != nil {
		return Progress{}, err
	}

	stored, err := e.store.Path(ctx, questID)
	if err != nil {
		return Progress{}, fmt.Errorf("loading path: %w", err)
	}

	if err := checkPrefix(stored, candidate); err != nil {
		return Progress{}, err
	}

	full := stored
	appended := false
	if len(candidate) > len(stored) {
		if err := e.store.AppendPath(ctx, questID, len(stored), candidate[len(stored):]); err != nil {
			return Progress{}, fmt.Errorf("appending path: %w", err)
		}
		full = candidate
		appended = true
	}

	p, err := e.score(ctx, q, full)
	if err != nil {
		return Progress{}, err
	}
	p.Appended = appended
	return p, nil
}

// Overview derives the same progress shape as Submit purely from stored
// state. It never writes.
func (e *Engine) Overview(ctx context.Context, userID, questID string) (Overview, error) {
	q, err := e.ownedQuest(ctx, userID, questID)
	if err != nil {
		return Overview{}, err
	}

	path, err := e.store.Path(ctx, questID)
	if err != nil {
		return Overview{}, fmt.Errorf("loading path: %w", err)
	}

	mission, err := e.missions.Mission(ctx, q.MissionID)
	if err != nil {
		return Overview{}, err
	}

	return Overview{
		Progress: Progress{
			Points:               q.AwardedPoints,
			CompletedLocationIDs: CompletedLocations(path, mission, e.radius),
			DistanceMeters:       math.Round(geo.PathDistance(path)),
			TimeSpent:            e.elapsed(q),
			Finished:             q.Finished,
		},
		MissionID: q.MissionID,
		Path:      path,
	}, nil
}

// score recomputes the quest's target points from current completion
// state and reconciles the difference into the quest row, the user's
// cached balance, and the ledger. delta == 0 writes nothing, which makes
// replayed submissions true no-ops.
func (e *Engine) score(ctx context.Context, q geoquest.Quest, path []geoquest.Coordinate) (Progress, error) {
	mission, err := e.missions.Mission(ctx, q.MissionID)
	if err != nil {
		return Progress{}, err
	}

	completed := CompletedLocations(path, mission, e.radius)
	target := 0
	done := make(map[string]bool, len(completed))
	for _, id := range completed {
		done[id] = true
	}
	for _, loc := range mission.Locations {
		if done[loc.ID] {
			target += loc.Points
		}
	}

	// The path log only grows, so completion cannot regress; finished is
	// terminal once reached.
	finished := q.Finished || MissionComplete(path, mission, e.radius)

	delta := target - q.AwardedPoints
	if delta != 0 || finished != q.Finished {
		desc := fmt.Sprintf("mission %q progress", mission.Name)
		if err := e.store.ApplyScore(ctx, q, target, delta, finished, desc); err != nil {
			return Progress{}, fmt.Errorf("applying score: %w", err)
		}
		if delta != 0 {
			e.logger.Info("points reconciled",
				"quest_id", q.ID, "user_id", q.UserID, "points", target, "delta", delta, "finished", finished)
		}
		q.AwardedPoints = target
		q.Finished = finished
		q.UpdatedAt = e.now()
	}

	return Progress{
		Points:               target,
		CompletedLocationIDs: completed,
		DistanceMeters:       math.Round(geo.PathDistance(path)),
		TimeSpent:            e.elapsed(q),
		Finished:             finished,
	}, nil
}

func (e *Engine) ownedQuest(ctx context.Context, userID, questID string) (geoquest.Quest, error) {
	q, err := e.store.Quest(ctx, questID)
	if err != nil {
		return geoquest.Quest{}, err
	}
	if q.UserID != userID {
		return geoquest.Quest{}, ErrNotOwner
	}
	return q, nil
}

// elapsed formats the quest's wall-clock age: frozen at the finishing
// write once finished, still running otherwise.
func (e *Engine) elapsed(q geoquest.Quest) string {
	end := e.now()
	if q.Finished {
		end = q.UpdatedAt
	}
	secs := int(end.Sub(q.CreatedAt) / time.Second)
	if secs < 0 {
		secs = 0
	}
	text, err := duration.Format(secs)
	if err != nil {
		// Unreachable after the clamp above; surfaced loudly if it ever is.
		e.logger.Error("formatting elapsed time", "quest_id", q.ID, "error", err)
		return "PT0S"
	}
	return text
}

// checkPrefix enforces prefix-consistency: every stored entry must match
// the candidate at the same index, up to the shorter length.
func checkPrefix(stored, candidate []geoquest.Coordinate) error {
	n := min(len(stored), len(candidate))
	for i := 0; i < n; i++ {
		if !stored[i].Equal(candidate[i]) {
			return fmt.Errorf("%w: entry %d is %v, stored %v",
				ErrPathConflict, i, candidate[i], stored[i])
		}
	}
	return nil
}
