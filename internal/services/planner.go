package services

import (
	"github.com/paulmach/orb"

	"robot-navigator/internal/domain"
)

// Orders the unvisited waypoints into a tour and produces the immediate
// motion target.
//
// The tour is greedy nearest-unvisited-first by feasible path length, with
// ties broken by lowest waypoint index for determinism. It does not attempt
// an optimal small-N solve; waypoint counts are low and the order is
// recomputed whenever the unvisited set changes.
type Planner struct {
	arena *domain.Arena
	grid  *grid
}

func NewPlanner(arena *domain.Arena, cellSize, safetyMargin float64) *Planner {
	return &Planner{
		arena: arena,
		grid:  newGrid(arena, cellSize, safetyMargin),
	}
}

// Plan derives the route over the unvisited waypoints ending at the goal.
// The returned route carries the obstacle-free polyline for the first leg
// only; Route.NextTarget is the lookahead motion target.
//
// Plan is pure with respect to its inputs: identical pose and unvisited set
// yield an identical route. It returns domain.ErrUnreachable when any
// remaining waypoint, or the goal, cannot be reached through free space.
func (p *Planner) Plan(pose domain.Pose, unvisited []domain.Waypoint) (*domain.Route, error) {
	route := &domain.Route{}
	remaining := append([]domain.Waypoint(nil), unvisited...)
	cur := pose.Position

	var firstLeg []orb.Point

	for len(remaining) > 0 {
		best := -1
		var bestCost float64
		var bestPath []orb.Point

		// Greedy step: cheapest feasible leg, lowest index on ties.
		for i, wp := range remaining {
			path, cost, ok := p.grid.findPath(cur, wp.Location)
			if !ok {
				continue
			}
			if best == -1 || cost < bestCost ||
				(cost == bestCost && wp.Index < remaining[best].Index) {
				best = i
				bestCost = cost
				bestPath = path
			}
		}

		if best == -1 {
			return nil, domain.ErrUnreachable
		}

		wp := remaining[best]
		route.Stops = append(route.Stops, wp.Location)
		route.Indexes = append(route.Indexes, wp.Index)
		if firstLeg == nil {
			firstLeg = bestPath
		}
		cur = wp.Location
		remaining = append(remaining[:best], remaining[best+1:]...)
	}

	goal := p.arena.Goal()
	goalPath, _, ok := p.grid.findPath(cur, goal)
	if !ok {
		return nil, domain.ErrUnreachable
	}
	route.Stops = append(route.Stops, goal)
	route.Indexes = append(route.Indexes, -1)
	if firstLeg == nil {
		firstLeg = goalPath
	}
	route.Leg = firstLeg

	return route, nil
}
