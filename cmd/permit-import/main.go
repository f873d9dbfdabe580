package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/BillboardMonitor/BM-Backend/internal/permits"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

// CLI flags
var (
	csvPath     = flag.String("csv", "", "Path to the permit register CSV (required)")
	dsn         = flag.String("dsn", os.Getenv("DATABASE_URL"), "Postgres DSN (default: env DATABASE_URL)")
	dryRun      = flag.Bool("dry-run", false, "Parse + validate only; no DB writes")
	confirm     = flag.Bool("confirm", false, "Required to write to the database")
	advisoryKey = flag.Int64("advisory-lock", 0, "Optional Postgres advisory lock key (e.g., 424242). 0 = disabled")
)

// Bulk loader for municipal permit registers. Unlike the HTTP upload path this
// runs straight against Postgres, so it suits the multi-hundred-thousand row
// exports the corporation publishes quarterly. Malformed rows are dropped and
// counted, matching the upload endpoint's behavior.

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()
	if *csvPath == "" {
		fatalf("--csv is required")
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		fatalf("open CSV: %v", err)
	}
	defer f.Close()

	// Run the file through the same synonym-aware parser the upload endpoint
	// uses. The memory store gives us validation plus last-write-wins dedupe
	// before anything touches the database.
	batch := permits.NewMemoryStore()
	summary, err := permits.IngestCSV(f, batch)
	if err != nil {
		fatalf("CSV error: %v", err)
	}

	fmt.Printf("Parsed %s: accepted=%d rejected=%d\n", *csvPath, summary.Accepted, summary.Rejected)
	for _, reason := range summary.Reasons {
		fmt.Println("  reject:", reason)
	}

	rows := batch.All()

	if *dryRun {
		fmt.Printf("Plan preview:\n")
		fmt.Printf("  Distinct permits to upsert: %d\n", len(rows))
		fmt.Println("  Table affected: billboard.permits (insert or update by license_id)")
		fmt.Println("Dry run complete. No changes made.")
		return
	}

	if !*confirm {
		fatalf("Refusing to run without --confirm. Add --dry-run to preview.")
	}
	if *dsn == "" {
		fatalf("--dsn not provided and DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatalf("connect: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		fatalf("ping: %v", err)
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		fatalf("begin tx: %v", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op if already committed
	}()

	// Optional advisory lock to avoid concurrent runs
	if *advisoryKey != 0 {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, *advisoryKey); err != nil {
			fatalf("advisory lock: %v", err)
		}
	}

	var before int64
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM billboard.permits`).Scan(&before); err != nil {
		fatalf("pre-count: %v", err)
	}
	fmt.Printf("Before: permits=%d\n", before)

	if err := upsertAll(ctx, tx, rows); err != nil {
		fatalf("upsert: %v", err)
	}

	var after int64
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM billboard.permits`).Scan(&after); err != nil {
		fatalf("post-count: %v", err)
	}
	fmt.Printf("After:  permits=%d (+%d)\n", after, after-before)

	if err := tx.Commit(); err != nil {
		fatalf("commit: %v", err)
	}
	fmt.Println("Import complete")
}

func upsertAll(ctx context.Context, tx *sql.Tx, rows []permits.Permit) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO billboard.permits
			(license_id, owner, longitude, latitude, width_m, height_m, valid_from, valid_to, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		ON CONFLICT (license_id) DO UPDATE SET
			owner      = EXCLUDED.owner,
			longitude  = EXCLUDED.longitude,
			latitude   = EXCLUDED.latitude,
			width_m    = EXCLUDED.width_m,
			height_m   = EXCLUDED.height_m,
			valid_from = EXCLUDED.valid_from,
			valid_to   = EXCLUDED.valid_to,
			notes      = EXCLUDED.notes,
			updated_at = NOW()
	`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, p := range rows {
		_, err := stmt.ExecContext(ctx,
			p.LicenseID, p.Owner, p.Longitude, p.Latitude,
			p.WidthM, p.HeightM, p.ValidFrom, p.ValidTo, p.Notes,
		)
		if err != nil {
			return fmt.Errorf("upsert %s: %w", p.LicenseID, err)
		}
	}
	return nil
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
