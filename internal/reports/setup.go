package reports

import (
	"log"

	"github.com/BillboardMonitor/BM-Backend/internal/db"
	"github.com/BillboardMonitor/BM-Backend/internal/engine"
	"github.com/BillboardMonitor/BM-Backend/internal/storage"
)

// Engine runs the server-side compliance evaluation for every submission.
// Images is optional; without it reports are stored key-less.
var (
	Engine *engine.Engine
	Images storage.ImageStore
)

func Init(e *engine.Engine, images storage.ImageStore) {
	if err := db.EnsureSchema(db.DB, "billboard"); err != nil {
		log.Fatal("Failed to ensure schema billboard: ", err)
	}

	if err := db.DB.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		log.Fatal("Failed to enable uuid-ossp extension:", err)
	}

	if err := db.DB.AutoMigrate(&Report{}); err != nil {
		log.Fatal("Failed to auto-migrate report tables", err)
	}

	Engine = e
	Images = images
}
