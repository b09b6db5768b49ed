package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"robot-navigator/internal/domain"
)

// Runtime configuration for the navigator process.
//
// All durations are expressed in seconds in the YAML file, matching the
// simulator's own configuration surface. Environment variables (NAV_*)
// override file values; Defaults documents every fallback.
type Config struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	WSPath    string `yaml:"ws_path"`
	Estimator string `yaml:"estimator"` // "telemetry" or "vision"

	AcceptanceRadius   float64 `yaml:"acceptance_radius"`
	ReplanningInterval float64 `yaml:"replanning_interval"`
	CycleTimeout       float64 `yaml:"cycle_timeout"`
	MaxRunTime         float64 `yaml:"max_run_time"`
	MaxCycles          int     `yaml:"max_cycles"`

	MaxSpeed    float64 `yaml:"max_speed"`
	MaxTurnRate float64 `yaml:"max_turn_rate"`

	CellSize          float64 `yaml:"cell_size"`
	SafetyMargin      float64 `yaml:"safety_margin"`
	MaxObservationAge float64 `yaml:"max_observation_age"`

	TransportRetries int     `yaml:"transport_retries"`
	RetryBackoff     float64 `yaml:"retry_backoff"`

	MetricsAddr string `yaml:"metrics_addr"`
	DBPath      string `yaml:"db_path"`
	MissionPath string `yaml:"mission_path"`
}

// Defaults returns the documented default configuration.
func Defaults() Config {
	return Config{
		Host:               "localhost",
		Port:               8080,
		WSPath:             "/ws",
		Estimator:          "telemetry",
		AcceptanceRadius:   0.5,
		ReplanningInterval: 2.0,
		CycleTimeout:       1.0,
		MaxRunTime:         120.0,
		MaxCycles:          5000,
		MaxSpeed:           1.0,
		MaxTurnRate:        1.5,
		CellSize:           0.5,
		SafetyMargin:       0.2,
		MaxObservationAge:  1.0,
		TransportRetries:   3,
		RetryBackoff:       0.5,
		MissionPath:        "missions/default.yaml",
	}
}

// Load reads configuration from the YAML file at path (missing file falls
// back to defaults), applies environment overrides, and validates the result.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("load config: parse %q: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("load config: read %q: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations that cannot produce a run.
func (c Config) Validate() error {
	if c.Estimator != "telemetry" && c.Estimator != "vision" {
		return &domain.ConfigError{Field: "estimator", Detail: fmt.Sprintf("unknown estimator %q", c.Estimator)}
	}
	if c.AcceptanceRadius <= 0 {
		return &domain.ConfigError{Field: "acceptance_radius", Detail: "must be > 0"}
	}
	if c.CycleTimeout <= 0 {
		return &domain.ConfigError{Field: "cycle_timeout", Detail: "must be > 0"}
	}
	if c.MaxRunTime <= 0 {
		return &domain.ConfigError{Field: "max_run_time", Detail: "must be > 0"}
	}
	if c.MaxSpeed <= 0 || c.MaxTurnRate <= 0 {
		return &domain.ConfigError{Field: "max_speed", Detail: "speed and turn-rate limits must be > 0"}
	}
	if c.CellSize <= 0 {
		return &domain.ConfigError{Field: "cell_size", Detail: "must be > 0"}
	}
	return nil
}

// WSURL assembles the simulator channel URL.
func (c Config) WSURL() string {
	return fmt.Sprintf("ws://%s:%d%s", c.Host, c.Port, c.WSPath)
}

func (c Config) ReplanningIntervalDuration() time.Duration { return seconds(c.ReplanningInterval) }
func (c Config) CycleTimeoutDuration() time.Duration       { return seconds(c.CycleTimeout) }
func (c Config) MaxRunTimeDuration() time.Duration         { return seconds(c.MaxRunTime) }
func (c Config) MaxObservationAgeDuration() time.Duration  { return seconds(c.MaxObservationAge) }
func (c Config) RetryBackoffDuration() time.Duration       { return seconds(c.RetryBackoff) }

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func applyEnv(c *Config) {
	c.Host = Get("NAV_HOST", c.Host)
	c.WSPath = Get("NAV_WS_PATH", c.WSPath)
	c.Estimator = Get("NAV_ESTIMATOR", c.Estimator)
	c.MetricsAddr = Get("NAV_METRICS_ADDR", c.MetricsAddr)
	c.DBPath = Get("DB_PATH", c.DBPath)
	c.MissionPath = Get("NAV_MISSION", c.MissionPath)

	envInt("NAV_PORT", &c.Port)
	envInt("NAV_MAX_CYCLES", &c.MaxCycles)
	envInt("NAV_TRANSPORT_RETRIES", &c.TransportRetries)

	envFloat("NAV_ACCEPTANCE_RADIUS", &c.AcceptanceRadius)
	envFloat("NAV_REPLANNING_INTERVAL", &c.ReplanningInterval)
	envFloat("NAV_CYCLE_TIMEOUT", &c.CycleTimeout)
	envFloat("NAV_MAX_RUN_TIME", &c.MaxRunTime)
	envFloat("NAV_MAX_SPEED", &c.MaxSpeed)
	envFloat("NAV_MAX_TURN_RATE", &c.MaxTurnRate)
	envFloat("NAV_CELL_SIZE", &c.CellSize)
	envFloat("NAV_SAFETY_MARGIN", &c.SafetyMargin)
	envFloat("NAV_MAX_OBSERVATION_AGE", &c.MaxObservationAge)
	envFloat("NAV_RETRY_BACKOFF", &c.RetryBackoff)
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
