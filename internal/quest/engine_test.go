package quest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taipeigo/geoquest/internal/geoquest"
)

// memStore is an in-memory Store/MissionStore for engine tests. Its
// AppendPath enforces the same expected-length guard as the SQLite store.
type memStore struct {
	mu       sync.Mutex
	missions map[string]geoquest.Mission
	quests   map[string]geoquest.Quest
	paths    map[string][]geoquest.Coordinate
	balances map[string]int
	ledger   []geoquest.PointsTransaction
	nextID   int
}

func newMemStore(missions ...geoquest.Mission) *memStore {
	s := &memStore{
		missions: make(map[string]geoquest.Mission),
		quests:   make(map[string]geoquest.Quest),
		paths:    make(map[string][]geoquest.Coordinate),
		balances: make(map[string]int),
	}
	for _, m := range missions {
		s.missions[m.ID] = m
	}
	return s
}

func (s *memStore) Mission(_ context.Context, id string) (geoquest.Mission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.missions[id]
	if !ok {
		return geoquest.Mission{}, ErrMissionNotFound
	}
	return m, nil
}

func (s *memStore) CreateQuest(_ context.Context, userID, missionID string) (geoquest.Quest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	q := geoquest.Quest{
		ID:        fmt.Sprintf("quest-%d", s.nextID),
		UserID:    userID,
		MissionID: missionID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.quests[q.ID] = q
	return q, nil
}

func (s *memStore) Quest(_ context.Context, questID string) (geoquest.Quest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quests[questID]
	if !ok {
		return geoquest.Quest{}, ErrQuestNotFound
	}
	return q, nil
}

func (s *memStore) Path(_ context.Context, questID string) ([]geoquest.Coordinate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	path := s.paths[questID]
	out := make([]geoquest.Coordinate, len(path))
	copy(out, path)
	return out, nil
}

func (s *memStore) AppendPath(_ context.Context, questID string, expectedLen int, suffix []geoquest.Coordinate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.paths[questID]) != expectedLen {
		return ErrPathOutdated
	}
	s.paths[questID] = append(s.paths[questID], suffix...)
	return nil
}

func (s *memStore) ApplyScore(_ context.Context, q geoquest.Quest, points, delta int, finished bool, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.quests[q.ID]
	cur.AwardedPoints = points
	cur.Finished = finished
	cur.UpdatedAt = time.Now()
	s.quests[q.ID] = cur
	if delta != 0 {
		s.balances[q.UserID] += delta
		kind := geoquest.TransactionEarned
		if delta < 0 {
			kind = geoquest.TransactionUsed
			delta = -delta
		}
		s.ledger = append(s.ledger, geoquest.PointsTransaction{
			UserID:      q.UserID,
			QuestID:     q.ID,
			Type:        kind,
			Points:      delta,
			Description: description,
		})
	}
	return nil
}

var (
	coordA = geoquest.Coordinate{Lng: 121.5000, Lat: 25.0000}
	coordB = geoquest.Coordinate{Lng: 121.5100, Lat: 25.0050}
	coordC = geoquest.Coordinate{Lng: 121.5200, Lat: 25.0100}
	coordD = geoquest.Coordinate{Lng: 121.5300, Lat: 25.0150}
)

func testMission() geoquest.Mission {
	return geoquest.Mission{
		ID:   "mission-1",
		Name: "Riverside Walk",
		Locations: []geoquest.Location{
			{ID: "loc-x", Name: "X", Coordinate: coordB, Points: 10},
			{ID: "loc-y", Name: "Y", Coordinate: coordD, Points: 20},
		},
	}
}

func testEngine(t *testing.T, missions ...geoquest.Mission) (*Engine, *memStore) {
	t.Helper()
	store := newMemStore(missions...)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEngine(logger, store, store, 15), store
}

func startQuest(t *testing.T, e *Engine, userID, missionID string) geoquest.Quest {
	t.Helper()
	q, err := e.Start(context.Background(), userID, missionID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return q
}

func TestStartUnknownMission(t *testing.T) {
	e, _ := testEngine(t, testMission())
	if _, err := e.Start(context.Background(), "u1", "nope"); !errors.Is(err, ErrMissionNotFound) {
		t.Errorf("err = %v, want ErrMissionNotFound", err)
	}
}

func TestStartSameMissionTwice(t *testing.T) {
	e, _ := testEngine(t, testMission())
	q1 := startQuest(t, e, "u1", "mission-1")
	q2 := startQuest(t, e, "u1", "mission-1")
	if q1.ID == q2.ID {
		t.Fatal("expected two distinct quests on the same mission")
	}

	// Each quest scores independently.
	ctx := context.Background()
	p1, err := e.Submit(ctx, "u1", q1.ID, []geoquest.Coordinate{coordB})
	if err != nil {
		t.Fatalf("submit q1: %v", err)
	}
	p2, err := e.Submit(ctx, "u1", q2.ID, []geoquest.Coordinate{coordB})
	if err != nil {
		t.Fatalf("submit q2: %v", err)
	}
	if p1.Points != 10 || p2.Points != 10 {
		t.Errorf("points = %d, %d, want 10 each", p1.Points, p2.Points)
	}
}

func TestSubmitUnknownQuest(t *testing.T) {
	e, _ := testEngine(t, testMission())
	if _, err := e.Submit(context.Background(), "u1", "nope", []geoquest.Coordinate{coordA}); !errors.Is(err, ErrQuestNotFound) {
		t.Errorf("err = %v, want ErrQuestNotFound", err)
	}
}

func TestSubmitWrongOwner(t *testing.T) {
	e, _ := testEngine(t, testMission())
	q := startQuest(t, e, "u1", "mission-1")
	if _, err := e.Submit(context.Background(), "u2", q.ID, []geoquest.Coordinate{coordA}); !errors.Is(err, ErrNotOwner) {
		t.Errorf("err = %v, want ErrNotOwner", err)
	}
}

func TestSubmitIdempotent(t *testing.T) {
	e, _ := testEngine(t, testMission())
	q := startQuest(t, e, "u1", "mission-1")
	ctx := context.Background()
	path := []geoquest.Coordinate{coordA, coordB}

	first, err := e.Submit(ctx, "u1", q.ID, path)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if !first.Appended {
		t.Error("first submit: expected appended=true")
	}

	second, err := e.Submit(ctx, "u1", q.ID, path)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if second.Appended {
		t.Error("second submit: expected appended=false")
	}
	if second.Points != first.Points {
		t.Errorf("points changed on replay: %d -> %d", first.Points, second.Points)
	}
	if len(second.CompletedLocationIDs) != len(first.CompletedLocationIDs) {
		t.Errorf("completed set changed on replay: %v -> %v",
			first.CompletedLocationIDs, second.CompletedLocationIDs)
	}
}

func TestSubmitShorterPathNoOp(t *testing.T) {
	e, store := testEngine(t, testMission())
	q := startQuest(t, e, "u1", "mission-1")
	ctx := context.Background()

	if _, err := e.Submit(ctx, "u1", q.ID, []geoquest.Coordinate{coordA, coordB, coordC}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	p, err := e.Submit(ctx, "u1", q.ID, []geoquest.Coordinate{coordA, coordB})
	if err != nil {
		t.Fatalf("shorter resubmit: %v", err)
	}
	if p.Appended {
		t.Error("shorter resubmit: expected appended=false")
	}
	if got, _ := store.Path(ctx, q.ID); len(got) != 3 {
		t.Errorf("stored path length = %d, want 3", len(got))
	}
}

func TestSubmitPrefixConflict(t *testing.T) {
	e, store := testEngine(t, testMission())
	q := startQuest(t, e, "u1", "mission-1")
	ctx := context.Background()

	if _, err := e.Submit(ctx, "u1", q.ID, []geoquest.Coordinate{coordA, coordB}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// [A, C] diverges at index 1.
	if _, err := e.Submit(ctx, "u1", q.ID, []geoquest.Coordinate{coordA, coordC}); !errors.Is(err, ErrPathConflict) {
		t.Errorf("divergent submit err = %v, want ErrPathConflict", err)
	}

	// [A, B, D] is a valid extension appending only D.
	p, err := e.Submit(ctx, "u1", q.ID, []geoquest.Coordinate{coordA, coordB, coordD})
	if err != nil {
		t.Fatalf("extension submit: %v", err)
	}
	if !p.Appended {
		t.Error("extension submit: expected appended=true")
	}
	if got, _ := store.Path(ctx, q.ID); len(got) != 3 || !got[2].Equal(coordD) {
		t.Errorf("stored path = %v, want [A B D]", got)
	}
}

func TestSubmitEpsilonTolerance(t *testing.T) {
	e, _ := testEngine(t, testMission())
	q := startQuest(t, e, "u1", "mission-1")
	ctx := context.Background()

	if _, err := e.Submit(ctx, "u1", q.ID, []geoquest.Coordinate{coordA}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Sub-epsilon wobble from a JSON round trip is not a conflict.
	wobble := geoquest.Coordinate{Lng: coordA.Lng + 5e-10, Lat: coordA.Lat - 5e-10}
	if _, err := e.Submit(ctx, "u1", q.ID, []geoquest.Coordinate{wobble, coordB}); err != nil {
		t.Fatalf("wobbled resubmit: %v", err)
	}
}

func TestMonotonicExtension(t *testing.T) {
	e, _ := testEngine(t, testMission())
	q := startQuest(t, e, "u1", "mission-1")
	ctx := context.Background()

	var path []geoquest.Coordinate
	prev := Progress{}
	for _, c := range []geoquest.Coordinate{coordA, coordB, coordC, coordD} {
		path = append(path, c)
		p, err := e.Submit(ctx, "u1", q.ID, path)
		if err != nil {
			t.Fatalf("submit %d points: %v", len(path), err)
		}
		if p.Points < prev.Points {
			t.Errorf("points decreased: %d -> %d", prev.Points, p.Points)
		}
		if p.DistanceMeters < prev.DistanceMeters {
			t.Errorf("distance decreased: %v -> %v", prev.DistanceMeters, p.DistanceMeters)
		}
		if len(p.CompletedLocationIDs) < len(prev.CompletedLocationIDs) {
			t.Errorf("completed set shrank: %v -> %v",
				prev.CompletedLocationIDs, p.CompletedLocationIDs)
		}
		prev = p
	}
	if !prev.Finished {
		t.Error("expected quest finished after visiting every location")
	}
}

func TestCompletionFirstVisitOrder(t *testing.T) {
	m := testMission()
	// Reach Y's location (coordD) before X's (coordB).
	path := []geoquest.Coordinate{coordA, coordD, coordC, coordB}
	got := CompletedLocations(path, m, 15)
	if len(got) != 2 || got[0] != "loc-y" || got[1] != "loc-x" {
		t.Errorf("CompletedLocations = %v, want [loc-y loc-x]", got)
	}
}

func TestCompletionUnvisited(t *testing.T) {
	m := testMission()
	got := CompletedLocations([]geoquest.Coordinate{coordA, coordC}, m, 15)
	if len(got) != 0 {
		t.Errorf("CompletedLocations = %v, want none", got)
	}
}

func TestEmptyMissionNeverComplete(t *testing.T) {
	empty := geoquest.Mission{ID: "mission-empty", Name: "Empty"}
	e, _ := testEngine(t, empty)
	q := startQuest(t, e, "u1", "mission-empty")

	p, err := e.Submit(context.Background(), "u1", q.ID, []geoquest.Coordinate{coordA, coordB})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if p.Finished {
		t.Error("a mission with zero locations must not finish")
	}
	if p.Points != 0 {
		t.Errorf("points = %d, want 0", p.Points)
	}
}

func TestScoringReconciliation(t *testing.T) {
	e, store := testEngine(t, testMission())
	q := startQuest(t, e, "u1", "mission-1")
	ctx := context.Background()

	// Visit only X (10 points).
	p, err := e.Submit(ctx, "u1", q.ID, []geoquest.Coordinate{coordA, coordB})
	if err != nil {
		t.Fatalf("submit 1: %v", err)
	}
	if p.Points != 10 {
		t.Errorf("after X: points = %d, want 10", p.Points)
	}
	if len(store.ledger) != 1 || store.ledger[0].Points != 10 || store.ledger[0].Type != geoquest.TransactionEarned {
		t.Fatalf("after X: ledger = %+v, want one earned row of 10", store.ledger)
	}
	if store.balances["u1"] != 10 {
		t.Errorf("after X: balance = %d, want 10", store.balances["u1"])
	}

	// Replay: no new ledger row.
	if _, err := e.Submit(ctx, "u1", q.ID, []geoquest.Coordinate{coordA, coordB}); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(store.ledger) != 1 {
		t.Fatalf("replay: ledger grew to %d rows", len(store.ledger))
	}

	// Visit Y too (20 more): a second earned row of 20, not 30.
	p, err = e.Submit(ctx, "u1", q.ID, []geoquest.Coordinate{coordA, coordB, coordD})
	if err != nil {
		t.Fatalf("submit 2: %v", err)
	}
	if p.Points != 30 {
		t.Errorf("after Y: points = %d, want 30", p.Points)
	}
	if !p.Finished {
		t.Error("after Y: expected finished")
	}
	if len(store.ledger) != 2 || store.ledger[1].Points != 20 {
		t.Fatalf("after Y: ledger = %+v, want second earned row of 20", store.ledger)
	}
	if store.balances["u1"] != 30 {
		t.Errorf("after Y: balance = %d, want 30", store.balances["u1"])
	}
}

func TestFinishedIsTerminal(t *testing.T) {
	e, store := testEngine(t, testMission())
	q := startQuest(t, e, "u1", "mission-1")
	ctx := context.Background()

	full := []geoquest.Coordinate{coordB, coordD}
	p, err := e.Submit(ctx, "u1", q.ID, full)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !p.Finished || p.Points != 30 {
		t.Fatalf("progress = %+v, want finished with 30 points", p)
	}

	// Further submissions extend the path but never unfinish or reduce.
	p, err = e.Submit(ctx, "u1", q.ID, append(full, coordA))
	if err != nil {
		t.Fatalf("post-finish submit: %v", err)
	}
	if !p.Finished {
		t.Error("post-finish submit flipped finished back")
	}
	if p.Points < 30 {
		t.Errorf("post-finish points = %d, want >= 30", p.Points)
	}
	if len(store.ledger) != 1 {
		t.Errorf("post-finish submit wrote %d extra ledger rows", len(store.ledger)-1)
	}
}

func TestOverviewMatchesSubmit(t *testing.T) {
	e, _ := testEngine(t, testMission())
	q := startQuest(t, e, "u1", "mission-1")
	ctx := context.Background()

	sub, err := e.Submit(ctx, "u1", q.ID, []geoquest.Coordinate{coordA, coordB, coordC})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	ov, err := e.Overview(ctx, "u1", q.ID)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if ov.MissionID != "mission-1" {
		t.Errorf("mission id = %q", ov.MissionID)
	}
	if len(ov.Path) != 3 {
		t.Errorf("path length = %d, want 3", len(ov.Path))
	}
	if ov.Points != sub.Points {
		t.Errorf("points = %d, submit said %d", ov.Points, sub.Points)
	}
	if ov.DistanceMeters != sub.DistanceMeters {
		t.Errorf("distance = %v, submit said %v", ov.DistanceMeters, sub.DistanceMeters)
	}

	if _, err := e.Overview(ctx, "u2", q.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("foreign overview err = %v, want ErrNotOwner", err)
	}
}

func TestConcurrentSubmissions(t *testing.T) {
	e, store := testEngine(t, testMission())
	q := startQuest(t, e, "u1", "mission-1")
	ctx := context.Background()

	full := []geoquest.Coordinate{coordA, coordB, coordC, coordD}

	// A flaky client retry overlapping the next real submission: many
	// goroutines racing prefixes of the same path must not double-append
	// or double-credit.
	var g errgroup.Group
	for i := 0; i < 16; i++ {
		end := 1 + i%len(full)
		g.Go(func() error {
			_, err := e.Submit(ctx, "u1", q.ID, full[:end])
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent submits: %v", err)
	}

	// One final authoritative submission.
	p, err := e.Submit(ctx, "u1", q.ID, full)
	if err != nil {
		t.Fatalf("final submit: %v", err)
	}
	if !p.Finished || p.Points != 30 {
		t.Fatalf("final progress = %+v, want finished with 30 points", p)
	}

	path, _ := store.Path(ctx, q.ID)
	if len(path) != len(full) {
		t.Errorf("stored path length = %d, want %d", len(path), len(full))
	}
	for i, c := range path {
		if !c.Equal(full[i]) {
			t.Errorf("path[%d] = %v, want %v", i, c, full[i])
		}
	}
	if store.balances["u1"] != 30 {
		t.Errorf("balance = %d, want exactly 30", store.balances["u1"])
	}
	total := 0
	for _, tx := range store.ledger {
		if tx.Type != geoquest.TransactionEarned {
			t.Errorf("unexpected %s transaction of %d", tx.Type, tx.Points)
		}
		total += tx.Points
	}
	if total != 30 {
		t.Errorf("ledger sum = %d, want 30", total)
	}
}
