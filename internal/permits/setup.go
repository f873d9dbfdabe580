package permits

import (
	"log"

	"github.com/BillboardMonitor/BM-Backend/internal/db"
)

// Index is the permit store the handlers and the matching engine share.
// Postgres-backed in the running service; tests swap in a MemoryStore.
var Index Store

func Init() {
	if err := db.EnsureSchema(db.DB, "billboard"); err != nil {
		log.Fatal("Failed to ensure schema billboard: ", err)
	}

	if err := db.DB.AutoMigrate(&Permit{}); err != nil {
		log.Fatal("Failed to auto-migrate permit tables", err)
	}

	Index = NewDBStore(db.DB)
}
