package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robot-navigator/internal/domain"
)

func writeMission(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "mission.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissionBuildsArena(t *testing.T) {
	path := writeMission(t, `
bounds: { min_x: 0, min_y: 0, max_x: 10, max_y: 10 }
obstacles:
  - rect: { min_x: 4, min_y: 4, max_x: 6, max_y: 6 }
  - circle: { x: 8, y: 2, radius: 0.5 }
waypoints:
  - { x: 2, y: 8 }
  - { x: 8, y: 8 }
goal: { x: 9, y: 9 }
`)

	arena, err := LoadMission(path)
	require.NoError(t, err)

	assert.Equal(t, orb.Point{9, 9}, arena.Goal())
	assert.Len(t, arena.Waypoints(), 2)
	assert.False(t, arena.IsFree(orb.Point{5, 5}), "rect obstacle occupied")
	assert.False(t, arena.IsFree(orb.Point{8, 2}), "circle obstacle occupied")
	assert.True(t, arena.IsFree(orb.Point{1, 1}))
}

func TestLoadMissionRejectsAmbiguousObstacle(t *testing.T) {
	path := writeMission(t, `
bounds: { min_x: 0, min_y: 0, max_x: 10, max_y: 10 }
obstacles:
  - rect: { min_x: 4, min_y: 4, max_x: 6, max_y: 6 }
    circle: { x: 5, y: 5, radius: 1 }
waypoints:
  - { x: 2, y: 8 }
goal: { x: 9, y: 9 }
`)

	_, err := LoadMission(path)
	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "obstacles", cfgErr.Field)
}

func TestLoadMissionRejectsShapelessObstacle(t *testing.T) {
	path := writeMission(t, `
bounds: { min_x: 0, min_y: 0, max_x: 10, max_y: 10 }
obstacles:
  - {}
waypoints:
  - { x: 2, y: 8 }
goal: { x: 9, y: 9 }
`)

	_, err := LoadMission(path)
	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestLoadMissionRequiresWaypoints(t *testing.T) {
	path := writeMission(t, `
bounds: { min_x: 0, min_y: 0, max_x: 10, max_y: 10 }
goal: { x: 9, y: 9 }
`)

	_, err := LoadMission(path)
	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "waypoints", cfgErr.Field)
}

func TestLoadMissionMissingFile(t *testing.T) {
	_, err := LoadMission(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
