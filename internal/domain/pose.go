package domain

import (
	"math"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// A timestamped estimate of the robot's position and heading.
// Poses are immutable snapshots: each control cycle builds a new one and
// never mutates an earlier one.
type Pose struct {
	Position   orb.Point
	Heading    float64 // radians, counter-clockwise from +X
	Velocity   orb.Point
	Confidence float64 // [0, 1]; 1 for direct telemetry
	Timestamp  time.Time
}

// Planar distance from the pose to a target point.
func (p Pose) DistanceTo(target orb.Point) float64 {
	return planar.Distance(p.Position, target)
}

// Absolute bearing from the pose to a target point.
func (p Pose) BearingTo(target orb.Point) float64 {
	return math.Atan2(target.Y()-p.Position.Y(), target.X()-p.Position.X())
}

// WrapAngle normalizes an angle into (-pi, pi].
func WrapAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
