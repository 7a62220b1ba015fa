package server

import (
	"context"
	"database/sql"
	"log/slog"
)

// Demo fixture ids, stable so clients and tests can reference them.
const (
	demoMissionLandmarks = "demo-mission-landmarks"
	demoMissionSprint    = "demo-mission-sprint"
	demoLocTaipei101     = "demo-loc-taipei101"
	demoLocCKS           = "demo-loc-cks"
	demoLocLongshan      = "demo-loc-longshan"
)

// SeedDemo creates the demo locations and missions if no missions exist.
// Idempotent: does nothing on a populated database.
func SeedDemo(ctx context.Context, logger *slog.Logger, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM missions`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	locations := []struct {
		id, name, desc string
		lng, lat       float64
		points         int
	}{
		{demoLocTaipei101, "Taipei 101", "Observation deck entrance", 121.5654, 25.0330, 15},
		{demoLocCKS, "CKS Memorial Hall", "Main gate", 121.5218, 25.0346, 20},
		{demoLocLongshan, "Longshan Temple", "Front courtyard", 121.4999, 25.0371, 10},
	}
	for _, l := range locations {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO locations (id, name, lng, lat, points, description)
			VALUES (?, ?, ?, ?, ?, ?)
		`, l.id, l.name, l.lng, l.lat, l.points, l.desc); err != nil {
			return err
		}
	}

	missions := []struct {
		id, name  string
		locations []string
	}{
		{demoMissionLandmarks, "Taipei Landmarks", []string{demoLocTaipei101, demoLocCKS, demoLocLongshan}},
		{demoMissionSprint, "Taipei 101 Sprint", []string{demoLocTaipei101}},
	}
	for _, m := range missions {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO missions (id, name) VALUES (?, ?)
		`, m.id, m.name); err != nil {
			return err
		}
		for i, locID := range m.locations {
			if _, err := db.ExecContext(ctx, `
				INSERT INTO mission_locations (mission_id, location_id, sequence_order)
				VALUES (?, ?, ?)
			`, m.id, locID, i); err != nil {
				return err
			}
		}
	}

	logger.Info("demo missions seeded", "missions", len(missions), "locations", len(locations))
	return nil
}
