package domain

import "github.com/paulmach/orb"

// A required location the robot must visit before the run can succeed.
// The visited flag is monotonic within a run (false -> true, never back) and
// is mutated only by the navigation loop.
type Waypoint struct {
	Index    int
	Location orb.Point
	Visited  bool
}
