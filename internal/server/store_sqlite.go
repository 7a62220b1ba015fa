package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taipeigo/geoquest/internal/geoquest"
	"github.com/taipeigo/geoquest/internal/quest"
)

const sqliteNow = "strftime('%Y-%m-%dT%H:%M:%fZ', 'now')"

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Login(ctx context.Context, userID string) (string, error) {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id) VALUES (?)
		ON CONFLICT (id) DO NOTHING
	`, userID); err != nil {
		return "", err
	}

	var token string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO user_sessions (user_id, token, expires_at)
		VALUES (?, lower(hex(randomblob(32))), strftime('%Y-%m-%dT%H:%M:%fZ', 'now', '+30 days'))
		RETURNING token
	`, userID).Scan(&token)
	return token, err
}

func (s *SQLiteStore) UserFromToken(ctx context.Context, token string) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id FROM user_sessions
		WHERE token = ? AND expires_at > `+sqliteNow+`
	`, token).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errNoSession
	}
	return userID, err
}

func (s *SQLiteStore) User(ctx context.Context, userID string) (geoquest.User, error) {
	var u geoquest.User
	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, total_points, created_at, updated_at FROM users WHERE id = ?
	`, userID).Scan(&u.ID, &u.TotalPoints, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	if err != nil {
		return u, err
	}
	u.CreatedAt = parseTime(createdAt)
	u.UpdatedAt = parseTime(updatedAt)
	return u, nil
}

func (s *SQLiteStore) Mission(ctx context.Context, missionID string) (geoquest.Mission, error) {
	var m geoquest.Mission
	var hidden int
	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, hidden, created_at, updated_at FROM missions WHERE id = ?
	`, missionID).Scan(&m.ID, &m.Name, &hidden, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return m, quest.ErrMissionNotFound
	}
	if err != nil {
		return m, err
	}
	m.Hidden = hidden != 0
	m.CreatedAt = parseTime(createdAt)
	m.UpdatedAt = parseTime(updatedAt)

	m.Locations, err = s.missionLocations(ctx, missionID)
	return m, err
}

func (s *SQLiteStore) missionLocations(ctx context.Context, missionID string) ([]geoquest.Location, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.id, l.name, l.lng, l.lat, l.points, COALESCE(l.description, '')
		FROM mission_locations ml
		JOIN locations l ON l.id = ml.location_id
		WHERE ml.mission_id = ?
		ORDER BY ml.sequence_order
	`, missionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locs []geoquest.Location
	for rows.Next() {
		var l geoquest.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Coordinate.Lng, &l.Coordinate.Lat, &l.Points, &l.Description); err != nil {
			return nil, err
		}
		locs = append(locs, l)
	}
	return locs, rows.Err()
}

func (s *SQLiteStore) Missions(ctx context.Context) ([]geoquest.Mission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at, updated_at FROM missions
		WHERE hidden = 0
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var missions []geoquest.Mission
	for rows.Next() {
		var m geoquest.Mission
		var createdAt, updatedAt string
		if err := rows.Scan(&m.ID, &m.Name, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		m.CreatedAt = parseTime(createdAt)
		m.UpdatedAt = parseTime(updatedAt)
		missions = append(missions, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range missions {
		missions[i].Locations, err = s.missionLocations(ctx, missions[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return missions, nil
}

func (s *SQLiteStore) Locations(ctx context.Context) ([]geoquest.Location, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, lng, lat, points, COALESCE(description, '')
		FROM locations
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locs []geoquest.Location
	for rows.Next() {
		var l geoquest.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Coordinate.Lng, &l.Coordinate.Lat, &l.Points, &l.Description); err != nil {
			return nil, err
		}
		locs = append(locs, l)
	}
	return locs, rows.Err()
}

func (s *SQLiteStore) CreateQuest(ctx context.Context, userID, missionID string) (geoquest.Quest, error) {
	q := geoquest.Quest{
		ID:        uuid.NewString(),
		UserID:    userID,
		MissionID: missionID,
	}
	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO quests (id, user_id, mission_id)
		VALUES (?, ?, ?)
		RETURNING created_at, updated_at
	`, q.ID, userID, missionID).Scan(&createdAt, &updatedAt)
	if err != nil {
		return geoquest.Quest{}, err
	}
	q.CreatedAt = parseTime(createdAt)
	q.UpdatedAt = parseTime(updatedAt)
	return q, nil
}

func (s *SQLiteStore) Quest(ctx context.Context, questID string) (geoquest.Quest, error) {
	var q geoquest.Quest
	var finished int
	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, mission_id, awarded_points, is_finished, created_at, updated_at
		FROM quests WHERE id = ?
	`, questID).Scan(&q.ID, &q.UserID, &q.MissionID, &q.AwardedPoints, &finished, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return q, quest.ErrQuestNotFound
	}
	if err != nil {
		return q, err
	}
	q.Finished = finished != 0
	q.CreatedAt = parseTime(createdAt)
	q.UpdatedAt = parseTime(updatedAt)
	return q, nil
}

func (s *SQLiteStore) Path(ctx context.Context, questID string) ([]geoquest.Coordinate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT lng, lat FROM quest_paths
		WHERE quest_id = ?
		ORDER BY sequence_order
	`, questID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var path []geoquest.Coordinate
	for rows.Next() {
		var c geoquest.Coordinate
		if err := rows.Scan(&c.Lng, &c.Lat); err != nil {
			return nil, err
		}
		path = append(path, c)
	}
	return path, rows.Err()
}

// AppendPath inserts suffix with sequence orders expectedLen..expectedLen+n-1
// inside one transaction. The count re-check is the optimistic guard: if a
// concurrent writer grew the path after our read, nothing is written and
// the caller sees quest.ErrPathOutdated.
func (s *SQLiteStore) AppendPath(ctx context.Context, questID string, expectedLen int, suffix []geoquest.Coordinate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM quest_paths WHERE quest_id = ?
	`, questID).Scan(&count); err != nil {
		return err
	}
	if count != expectedLen {
		return fmt.Errorf("%w: have %d entries, expected %d", quest.ErrPathOutdated, count, expectedLen)
	}

	for i, c := range suffix {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO quest_paths (quest_id, sequence_order, lng, lat)
			VALUES (?, ?, ?, ?)
		`, questID, expectedLen+i, c.Lng, c.Lat); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE quests SET updated_at = `+sqliteNow+` WHERE id = ?
	`, questID); err != nil {
		return err
	}

	return tx.Commit()
}

// ApplyScore persists one reconciliation: the quest's new points/finished
// state, the balance shift, and (for a nonzero delta) exactly one ledger
// row — all in the same transaction so a crash cannot split them.
func (s *SQLiteStore) ApplyScore(ctx context.Context, q geoquest.Quest, points, delta int, finished bool, description string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	finishedInt := 0
	if finished {
		finishedInt = 1
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE quests SET awarded_points = ?, is_finished = ?, updated_at = `+sqliteNow+`
		WHERE id = ?
	`, points, finishedInt, q.ID); err != nil {
		return err
	}

	if delta != 0 {
		if _, err := tx.ExecContext(ctx, `
			UPDATE users SET total_points = total_points + ?, updated_at = `+sqliteNow+`
			WHERE id = ?
		`, delta, q.UserID); err != nil {
			return err
		}

		kind := geoquest.TransactionEarned
		amount := delta
		if delta < 0 {
			kind = geoquest.TransactionUsed
			amount = -delta
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO points_transactions (id, user_id, quest_id, transaction_type, points, description)
			VALUES (?, ?, ?, ?, ?, NULLIF(?, ''))
		`, uuid.NewString(), q.UserID, q.ID, string(kind), amount, description); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) Transactions(ctx context.Context, userID string, kind geoquest.TransactionType, limit int) ([]geoquest.PointsTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, COALESCE(quest_id, ''), transaction_type, points, COALESCE(description, ''), created_at
		FROM points_transactions
		WHERE user_id = ? AND (? = '' OR transaction_type = ?)
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, string(kind), string(kind), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []geoquest.PointsTransaction
	for rows.Next() {
		var t geoquest.PointsTransaction
		var kind, createdAt string
		if err := rows.Scan(&t.ID, &t.UserID, &t.QuestID, &kind, &t.Points, &t.Description, &createdAt); err != nil {
			return nil, err
		}
		t.Type = geoquest.TransactionType(kind)
		t.CreatedAt = parseTime(createdAt)
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
