package ports

import (
	"context"
	"time"
)

// Persisted record of one navigation run.
type RunRecord struct {
	RunID      int64
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string
	Reason     string
	Cycles     int
	Visited    int
}

// Port: a boundary for recording and retrieving run history.
type RunRepository interface {
	// Persist a finished run and return its assigned id.
	SaveRun(ctx context.Context, rec RunRecord) (int64, error)
	// Return all recorded runs, oldest first.
	ListRuns(ctx context.Context) ([]RunRecord, error)
}
