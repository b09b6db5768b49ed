package domain

import "github.com/paulmach/orb"

// The ordered sequence of remaining targets chosen by the planner:
// unvisited waypoints in visiting order, with the goal as the final stop.
// Leg holds the obstacle-free polyline for the first stop only; later legs
// are recomputed as the tour progresses.
type Route struct {
	Stops   []orb.Point
	Indexes []int // waypoint index per stop; -1 for the goal
	Leg     []orb.Point
}

// NextTarget returns the immediate motion target: the first hop of the
// current leg, falling back to the first stop when the leg is trivial.
func (r *Route) NextTarget() orb.Point {
	if len(r.Leg) > 0 {
		return r.Leg[0]
	}
	return r.Stops[0]
}
