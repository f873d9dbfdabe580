package zones

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

		r.Get("/", ListZones)

		r.Group(func(r chi.Router) {
			r.Use(middleware.OfficerMiddleware(sessionFetcher))
			r.Post("/", CreateZone)
		})
	})

	return r
}
