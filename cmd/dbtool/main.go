package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"robot-navigator/internal/adapters/repositories"
	"robot-navigator/internal/config"
	"robot-navigator/internal/platform/db"
)

// dbtool archives the local SQLite run history into a shared Postgres
// instance so runs from many machines can be compared in one place.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	pg, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pg.Close()

	localPath := config.Get("DB_PATH", "data/runs.db")
	local, err := openLocal(localPath)
	if err != nil {
		log.Fatal(err)
	}
	defer local.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := archiveRuns(ctx, local, pg); err != nil {
		log.Fatal(err)
	}
}

func openLocal(path string) (*sql.DB, error) {
	local, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open local run store %q: %w", path, err)
	}
	if err := local.Ping(); err != nil {
		return nil, fmt.Errorf("verify local run store %q: %w", path, err)
	}
	return local, nil
}

func archiveRuns(ctx context.Context, local, pg *sql.DB) error {
	log.Println("Initializing archive schema...")
	if err := initArchiveSchema(ctx, pg); err != nil {
		return fmt.Errorf("archive runs: %w", err)
	}
	log.Println("Schema ready.")

	repo := repositories.NewSqliteRunRepository(local)
	records, err := repo.ListRuns(ctx)
	if err != nil {
		return fmt.Errorf("archive runs: %w", err)
	}
	log.Printf("Archiving %d runs...", len(records))

	tx, err := pg.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("archive runs: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	INSERT INTO run_archive (
		source_run_id,
		started_at,
		finished_at,
		status,
		reason,
		cycles,
		waypoints_visited
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (source_run_id, started_at) DO NOTHING;
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("archive runs: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			rec.RunID, rec.StartedAt, rec.FinishedAt,
			rec.Status, rec.Reason, rec.Cycles, rec.Visited,
		); err != nil {
			return fmt.Errorf("archive runs: insert run_id=%d: %w", rec.RunID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("archive runs: commit tx: %w", err)
	}
	log.Println("Archive complete.")

	return nil
}

func initArchiveSchema(ctx context.Context, pg *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS run_archive (
		id BIGSERIAL PRIMARY KEY,
		source_run_id BIGINT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
		status TEXT NOT NULL,
		reason TEXT NOT NULL,
		cycles INTEGER NOT NULL,
		waypoints_visited INTEGER NOT NULL,
		UNIQUE (source_run_id, started_at)
	);
	`
	if _, err := pg.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("init archive schema: %w", err)
	}
	return nil
}
