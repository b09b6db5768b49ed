package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"robot-navigator/internal/ports"
)

// SQLite-backed implementation of the RunRepository port.
type SqliteRunRepository struct{ DB *sql.DB }

func NewSqliteRunRepository(db *sql.DB) *SqliteRunRepository {
	return &SqliteRunRepository{DB: db}
}

// Persist one finished run and return its assigned id.
func (s *SqliteRunRepository) SaveRun(ctx context.Context, rec ports.RunRecord) (int64, error) {
	if s.DB == nil {
		return 0, errors.New("sqlite run repository: DB is nil")
	}

	query := `
	INSERT INTO runs (
		started_at,
		finished_at,
		status,
		reason,
		cycles,
		waypoints_visited
	)
	VALUES (?, ?, ?, ?, ?, ?);
	`
	res, err := s.DB.ExecContext(ctx, query,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.FinishedAt.UTC().Format(time.RFC3339Nano),
		rec.Status,
		rec.Reason,
		rec.Cycles,
		rec.Visited,
	)
	if err != nil {
		return 0, fmt.Errorf("save run: insert: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("save run: last insert id: %w", err)
	}
	return id, nil
}

// Return all recorded runs, oldest first.
func (s *SqliteRunRepository) ListRuns(ctx context.Context) ([]ports.RunRecord, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite run repository: DB is nil")
	}

	query := `
	SELECT
		run_id,
		started_at,
		finished_at,
		status,
		reason,
		cycles,
		waypoints_visited
	FROM runs
	ORDER BY run_id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list runs: query runs table: %w", err)
	}
	defer rows.Close()

	records := make([]ports.RunRecord, 0, 16)
	for rows.Next() {
		var rec ports.RunRecord
		var started, finished string
		if err := rows.Scan(&rec.RunID, &started, &finished, &rec.Status, &rec.Reason, &rec.Cycles, &rec.Visited); err != nil {
			return nil, fmt.Errorf("list runs: scan row: %w", err)
		}
		if rec.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("list runs: parse started_at: %w", err)
		}
		if rec.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("list runs: parse finished_at: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: row iteration: %w", err)
	}

	return records, nil
}
