package analytics

import (
	"net/http"

	"github.com/BillboardMonitor/BM-Backend/internal/auth"
	"github.com/BillboardMonitor/BM-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()
	sessionFetcher := auth.SessionInfo{}

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(sessionFetcher))

		// Leaderboard is visible to everyone who is signed in.
		r.Get("/leaderboard", GetLeaderboard)

		r.Group(func(r chi.Router) {
			r.Use(middleware.OfficerMiddleware(sessionFetcher))
			r.Get("/dashboard", GetDashboardStats)
			r.Get("/heatmap", GetHeatmapData)
			r.Get("/trends", GetViolationTrends)
		})
	})

	return r
}
