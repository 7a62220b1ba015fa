package server

import (
	"context"
	"errors"

	"github.com/taipeigo/geoquest/internal/geoquest"
	"github.com/taipeigo/geoquest/internal/quest"
)

var (
	ErrNotFound  = errors.New("not found")
	errNoSession = errors.New("no valid session")
)

// Store is everything the HTTP layer needs from persistence. It embeds
// the quest engine's store contracts so one SQLiteStore serves both.
type Store interface {
	quest.Store
	quest.MissionStore

	// Login upserts the user and mints a session token.
	Login(ctx context.Context, userID string) (token string, err error)
	// UserFromToken resolves an unexpired session token to a user id,
	// failing with errNoSession otherwise.
	UserFromToken(ctx context.Context, token string) (string, error)

	User(ctx context.Context, userID string) (geoquest.User, error)
	Missions(ctx context.Context) ([]geoquest.Mission, error)
	Locations(ctx context.Context) ([]geoquest.Location, error)
	Transactions(ctx context.Context, userID string, kind geoquest.TransactionType, limit int) ([]geoquest.PointsTransaction, error)
}
