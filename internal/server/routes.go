package server

import (
	"database/sql"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/taipeigo/geoquest/internal/quest"
)

func addRoutes(r chi.Router, logger *slog.Logger, store Store, engine *quest.Engine, db *sql.DB) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("GeoQuest API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, db))

	r.Post("/api/auth/login", handleLogin(logger, store))

	// Catalog reads — public.
	r.Get("/api/missions/list", handleMissionsList(store))
	r.Get("/api/missions/{id}", handleMissionDetail(store))
	r.Get("/api/locations/list", handleLocationsList(store))

	// Per-user routes — session required, {userID} must match it.
	r.Route("/api/users/{userID}", func(r chi.Router) {
		r.Use(authMiddleware(store))
		r.Get("/", handleUser(store))
		r.Get("/points-transactions", handleTransactions(logger, store))
		r.Post("/quests", handleQuestStart(logger, engine))
		r.Post("/quests/{questID}", handleQuestSubmit(logger, engine))
		r.Get("/quests/{questID}/overview", handleQuestOverview(logger, engine))
	})
}
