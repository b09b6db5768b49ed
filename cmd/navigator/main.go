package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	_ "modernc.org/sqlite"

	"robot-navigator/internal/adapters/perception"
	"robot-navigator/internal/adapters/repositories"
	"robot-navigator/internal/adapters/sim"
	"robot-navigator/internal/config"
	"robot-navigator/internal/domain"
	"robot-navigator/internal/platform/obs"
	"robot-navigator/internal/ports"
	"robot-navigator/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (WebSocket simulator, SQLite run store) behind
// ports and drives one navigation run to completion.
func main() {
	os.Exit(run())
}

func run() int {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	configPath := flag.String("config", config.Get("NAV_CONFIG", "config.yaml"), "navigator config file")
	missionPath := flag.String("mission", "", "mission file (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("configuration rejected: %v", err)
		return 1
	}
	if *missionPath != "" {
		cfg.MissionPath = *missionPath
	}

	arena, err := config.LoadMission(cfg.MissionPath)
	if err != nil {
		log.Printf("mission rejected: %v", err)
		return 1
	}

	var metrics *obs.Metrics
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		metrics = obs.NewMetrics(reg)
		srv := obs.Serve(cfg.MetricsAddr, reg)
		defer srv.Close()
	}

	var repo ports.RunRepository
	if cfg.DBPath != "" {
		db, err := openDB(cfg.DBPath)
		if err != nil {
			log.Printf("run store unavailable: %v", err)
			return 1
		}
		defer db.Close()
		if err := repositories.InitSchema(db); err != nil {
			log.Printf("run store schema: %v", err)
			return 1
		}
		repo = repositories.NewSqliteRunRepository(db)
	}

	estimator, err := buildEstimator(cfg, arena)
	if err != nil {
		log.Printf("estimator rejected: %v", err)
		return 1
	}

	transport := sim.NewClient(cfg.WSURL())
	nav := services.NewNavigator(cfg, arena, transport, estimator, metrics)

	runID := fmt.Sprintf("run-%d", time.Now().UnixNano())
	ctx := context.WithValue(context.Background(), obs.RunIDKey, runID)

	log.Printf("run_id=%s mission=%s url=%s estimator=%s", runID, cfg.MissionPath, cfg.WSURL(), cfg.Estimator)
	outcome := nav.Run(ctx)
	log.Printf(
		"run_id=%s status=%s reason=%s cycles=%d visited=%d dur=%dms",
		runID, outcome.Status, outcome.Reason, outcome.Cycles, outcome.Visited,
		outcome.FinishedAt.Sub(outcome.StartedAt).Milliseconds(),
	)

	if repo != nil {
		saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		id, err := repo.SaveRun(saveCtx, ports.RunRecord{
			StartedAt:  outcome.StartedAt,
			FinishedAt: outcome.FinishedAt,
			Status:     outcome.Status.String(),
			Reason:     outcome.Reason,
			Cycles:     outcome.Cycles,
			Visited:    outcome.Visited,
		})
		if err != nil {
			log.Printf("run_id=%s run record not saved: %v", runID, err)
		} else {
			log.Printf("run_id=%s saved run record id=%d", runID, id)
		}
	}

	return outcome.ExitCode()
}

func buildEstimator(cfg config.Config, arena *domain.Arena) (ports.StateEstimator, error) {
	switch cfg.Estimator {
	case "telemetry":
		return perception.NewTelemetryEstimator(cfg.MaxObservationAgeDuration()), nil
	case "vision":
		return perception.NewVisionEstimator(arena, cfg.MaxObservationAgeDuration()), nil
	default:
		return nil, &domain.ConfigError{Field: "estimator", Detail: fmt.Sprintf("unknown estimator %q", cfg.Estimator)}
	}
}

func openDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("openDB: open sqlite database %q: %w", dbPath, err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("openDB: verify sqlite connection to %q: %w", dbPath, err)
	}

	return db, nil
}
