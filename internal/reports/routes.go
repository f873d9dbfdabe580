package reports

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

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitMiddleware())
			r.Post("/", SubmitReport)
		})

		r.Get("/", GetReports)
		r.Get("/{id}", GetReportByID)

		r.Group(func(r chi.Router) {
			r.Use(middleware.OfficerMiddleware(sessionFetcher))
			r.Patch("/{id}", UpdateReportStatus)
		})
	})

	return r
}
