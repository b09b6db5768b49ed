package config

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"gopkg.in/yaml.v3"

	"robot-navigator/internal/domain"
)

// YAML mission file: arena bounds, obstacle shapes, required waypoints and
// the goal. Shapes are normalized to rings before arena construction.

type missionPoint struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type missionRect struct {
	MinX float64 `yaml:"min_x"`
	MinY float64 `yaml:"min_y"`
	MaxX float64 `yaml:"max_x"`
	MaxY float64 `yaml:"max_y"`
}

type missionCircle struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Radius float64 `yaml:"radius"`
}

type missionObstacle struct {
	Rect   *missionRect   `yaml:"rect"`
	Circle *missionCircle `yaml:"circle"`
}

type missionFile struct {
	Bounds    missionRect       `yaml:"bounds"`
	Obstacles []missionObstacle `yaml:"obstacles"`
	Waypoints []missionPoint    `yaml:"waypoints"`
	Goal      missionPoint      `yaml:"goal"`
}

// LoadMission reads a mission file and builds the validated arena.
func LoadMission(path string) (*domain.Arena, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load mission: read %q: %w", path, err)
	}

	var m missionFile
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("load mission: parse %q: %w", path, err)
	}

	return buildArena(m)
}

func buildArena(m missionFile) (*domain.Arena, error) {
	bounds := orb.Bound{
		Min: orb.Point{m.Bounds.MinX, m.Bounds.MinY},
		Max: orb.Point{m.Bounds.MaxX, m.Bounds.MaxY},
	}

	obstacles := make([]orb.Ring, 0, len(m.Obstacles))
	for i, obs := range m.Obstacles {
		switch {
		case obs.Rect != nil && obs.Circle != nil:
			return nil, &domain.ConfigError{Field: "obstacles", Detail: fmt.Sprintf("obstacle %d declares both rect and circle", i)}
		case obs.Rect != nil:
			r := obs.Rect
			obstacles = append(obstacles, domain.RectRing(r.MinX, r.MinY, r.MaxX, r.MaxY))
		case obs.Circle != nil:
			c := obs.Circle
			if c.Radius <= 0 {
				return nil, &domain.ConfigError{Field: "obstacles", Detail: fmt.Sprintf("obstacle %d has non-positive radius", i)}
			}
			obstacles = append(obstacles, domain.CircleRing(orb.Point{c.X, c.Y}, c.Radius, 16))
		default:
			return nil, &domain.ConfigError{Field: "obstacles", Detail: fmt.Sprintf("obstacle %d declares no shape", i)}
		}
	}

	waypoints := make([]orb.Point, len(m.Waypoints))
	for i, wp := range m.Waypoints {
		waypoints[i] = orb.Point{wp.X, wp.Y}
	}
	if len(waypoints) == 0 {
		return nil, &domain.ConfigError{Field: "waypoints", Detail: "mission declares no waypoints"}
	}

	return domain.NewArena(bounds, obstacles, waypoints, orb.Point{m.Goal.X, m.Goal.Y})
}
