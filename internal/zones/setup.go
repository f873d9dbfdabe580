package zones

import (
	"log"
	"os"

	"github.com/BillboardMonitor/BM-Backend/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "billboard"); err != nil {
		log.Fatal("Failed to ensure schema billboard: ", err)
	}

	// Polygon containment needs PostGIS. Buffer-only deployments (or the
	// local provider) work without it, so a failure here is a warning.
	if err := db.DB.Exec(`CREATE EXTENSION IF NOT EXISTS postgis`).Error; err != nil {
		log.Printf("[zones] WARNING: could not enable postgis extension: %v", err)
		log.Printf("[zones] polygon zones will not match; set ZONE_PROVIDER=local or install PostGIS")
	}

	if err := db.DB.AutoMigrate(&SensitiveZone{}); err != nil {
		log.Fatal("Failed to auto-migrate zone tables", err)
	}

	if path := os.Getenv("ZONES_SEED_FILE"); path != "" {
		defs, err := LoadSeedFile(path)
		if err != nil {
			log.Fatal("Failed to load zone seed file: ", err)
		}
		if err := SeedDB(db.DB, defs); err != nil {
			log.Fatal("Failed to seed zones: ", err)
		}
		log.Printf("[zones] seeded %d sensitive zones from %s", len(defs), path)
	}
}
