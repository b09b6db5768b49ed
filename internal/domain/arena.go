package domain

import (
	"fmt"
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Static model of the arena: bounds, obstacle polygons, required waypoints
// and the goal. Loaded once at startup and read-only for the lifetime of a
// run; all queries are side-effect free.
//
// Obstacles are closed rings. An R-tree over their bounding boxes narrows
// candidates; exact point-in-ring and segment tests decide.
type Arena struct {
	bounds    orb.Bound
	obstacles []orb.Ring
	index     *rtreego.Rtree
	waypoints []orb.Point
	goal      orb.Point
}

type obstacleEntry struct {
	ring orb.Ring
	rect rtreego.Rect
}

func (e *obstacleEntry) Bounds() rtreego.Rect { return e.rect }

// NewArena validates the geometry and builds the spatial index. It returns a
// *ConfigError when the loaded geometry is inconsistent (goal or waypoint out
// of bounds or inside an obstacle).
func NewArena(bounds orb.Bound, obstacles []orb.Ring, waypoints []orb.Point, goal orb.Point) (*Arena, error) {
	if bounds.Max.X() <= bounds.Min.X() || bounds.Max.Y() <= bounds.Min.Y() {
		return nil, &ConfigError{Field: "bounds", Detail: "max must exceed min on both axes"}
	}

	tree := rtreego.NewTree(2, 25, 50)
	for i, ring := range obstacles {
		if len(ring) < 3 {
			return nil, &ConfigError{Field: "obstacles", Detail: fmt.Sprintf("obstacle %d has fewer than 3 vertices", i)}
		}
		rect, err := rectFromBound(ring.Bound())
		if err != nil {
			return nil, &ConfigError{Field: "obstacles", Detail: fmt.Sprintf("obstacle %d: %v", i, err)}
		}
		tree.Insert(&obstacleEntry{ring: ring, rect: rect})
	}

	a := &Arena{
		bounds:    bounds,
		obstacles: obstacles,
		index:     tree,
		waypoints: waypoints,
		goal:      goal,
	}

	if !a.IsFree(goal) {
		return nil, &ConfigError{Field: "goal", Detail: "goal lies out of bounds or inside an obstacle"}
	}
	for i, wp := range waypoints {
		if !a.IsFree(wp) {
			return nil, &ConfigError{Field: "waypoints", Detail: fmt.Sprintf("waypoint %d lies out of bounds or inside an obstacle", i)}
		}
	}

	return a, nil
}

// Bounds returns the arena bounding box.
func (a *Arena) Bounds() orb.Bound { return a.bounds }

// Goal returns the designated terminal point.
func (a *Arena) Goal() orb.Point { return a.goal }

// Waypoints returns fresh, unvisited waypoint values in declaration order.
// The caller (the navigation loop) owns the returned slice.
func (a *Arena) Waypoints() []Waypoint {
	out := make([]Waypoint, len(a.waypoints))
	for i, p := range a.waypoints {
		out[i] = Waypoint{Index: i, Location: p}
	}
	return out
}

// IsFree reports whether a point is inside the bounds and outside every
// obstacle region.
func (a *Arena) IsFree(p orb.Point) bool {
	if !a.bounds.Contains(p) {
		return false
	}
	for _, e := range a.candidates(p.Bound()) {
		if planar.RingContains(e.ring, p) {
			return false
		}
	}
	return true
}

// DistanceToNearestObstacle returns the planar distance from p to the
// closest obstacle edge, +Inf when the arena has no obstacles, and 0 when p
// is inside an obstacle.
func (a *Arena) DistanceToNearestObstacle(p orb.Point) float64 {
	if len(a.obstacles) == 0 {
		return math.Inf(1)
	}
	best := math.Inf(1)
	for _, ring := range a.obstacles {
		if planar.RingContains(ring, p) {
			return 0
		}
		for i := 0; i < len(ring)-1; i++ {
			if d := segmentDistance(ring[i], ring[i+1], p); d < best {
				best = d
			}
		}
	}
	return best
}

// SegmentFree reports whether the straight segment from p1 to p2 stays in
// free space: both endpoints and the midpoint free, and no obstacle edge
// crossed.
func (a *Arena) SegmentFree(p1, p2 orb.Point) bool {
	if !a.IsFree(p1) || !a.IsFree(p2) {
		return false
	}
	mid := orb.Point{(p1.X() + p2.X()) / 2, (p1.Y() + p2.Y()) / 2}
	if !a.IsFree(mid) {
		return false
	}

	segBound := orb.MultiPoint{p1, p2}.Bound()
	for _, e := range a.candidates(segBound) {
		ring := e.ring
		for i := 0; i < len(ring)-1; i++ {
			if segmentsIntersect(p1, p2, ring[i], ring[i+1]) {
				return false
			}
		}
	}
	return true
}

// candidates returns obstacles whose bounding boxes intersect the query box.
func (a *Arena) candidates(b orb.Bound) []*obstacleEntry {
	rect, err := rectFromBound(b)
	if err != nil {
		return nil
	}
	hits := a.index.SearchIntersect(rect)
	out := make([]*obstacleEntry, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.(*obstacleEntry))
	}
	return out
}

func rectFromBound(b orb.Bound) (rtreego.Rect, error) {
	const eps = 1e-9 // rtreego rejects zero-length sides
	return rtreego.NewRect(
		rtreego.Point{b.Min.X(), b.Min.Y()},
		[]float64{math.Max(b.Max.X()-b.Min.X(), eps), math.Max(b.Max.Y()-b.Min.Y(), eps)},
	)
}
