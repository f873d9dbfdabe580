package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/BillboardMonitor/BM-Backend/internal/analytics"
	"github.com/BillboardMonitor/BM-Backend/internal/auth"
	"github.com/BillboardMonitor/BM-Backend/internal/db"
	"github.com/BillboardMonitor/BM-Backend/internal/engine"
	"github.com/BillboardMonitor/BM-Backend/internal/middleware"
	"github.com/BillboardMonitor/BM-Backend/internal/permits"
	"github.com/BillboardMonitor/BM-Backend/internal/reports"
	"github.com/BillboardMonitor/BM-Backend/internal/storage"
	"github.com/BillboardMonitor/BM-Backend/internal/zones"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	response := "Server is up!"
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, response)
}

// zoneProvider picks the sensitive-zone backend. "postgis" (default) queries
// the zones table; "local" evaluates against a seed file in memory, which is
// what dev environments without PostGIS use.
func zoneProvider() zones.Provider {
	if os.Getenv("ZONE_PROVIDER") == "local" {
		path := os.Getenv("ZONES_SEED_FILE")
		if path == "" {
			log.Fatal("ZONE_PROVIDER=local requires ZONES_SEED_FILE")
		}
		defs, err := zones.LoadSeedFile(path)
		if err != nil {
			log.Fatal("Failed to load zone seed file: ", err)
		}
		return zones.NewLocalProvider(defs)
	}
	return zones.NewDBProvider(db.DB)
}

func main() {
	_ = godotenv.Load(".env.local")
	db.Connect()

	port := os.Getenv("PORT")
	if port == "" {
		port = "5050"
	}

	auth.Init()
	permits.Init()
	zones.Init()

	svc, err := storage.NewS3Service()
	if err != nil {
		log.Fatal("Failed to connect to object storage: ", err)
	}
	var images storage.ImageStore
	if svc != nil {
		images = svc
	}

	matcher := engine.New(permits.Index, zoneProvider(), engine.Config{})
	reports.Init(matcher, images)

	analytics.Cache = analytics.OpenCacheFromEnv()

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Get("/", RootHandler)

	r.Mount("/auth", auth.SetupRoutes())
	r.Mount("/reports", reports.SetupRoutes())
	r.Mount("/permits", permits.SetupRoutes())
	r.Mount("/zones", zones.SetupRoutes())
	r.Mount("/analytics", analytics.SetupRoutes())

	fmt.Println("Server listening on port :" + port + "...")

	http.ListenAndServe("0.0.0.0:"+port, r)
}
