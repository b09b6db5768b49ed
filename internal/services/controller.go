package services

import (
	"math"

	"github.com/paulmach/orb"

	"robot-navigator/internal/domain"
)

// Converts the current pose and a motion target into a bounded command:
// proportional steering toward the target bearing, speed scaled down by
// heading error and remaining distance, both clamped to configured limits.
type Controller struct {
	arena    *domain.Arena
	maxSpeed float64
	maxTurn  float64
	turnGain float64
	horizon  float64 // seconds covered by the one-step projection
}

func NewController(arena *domain.Arena, maxSpeed, maxTurn float64) *Controller {
	return &Controller{
		arena:    arena,
		maxSpeed: maxSpeed,
		maxTurn:  maxTurn,
		turnGain: 2.0,
		horizon:  0.5,
	}
}

// Command computes the motion directive for one cycle. The commanded motion
// is projected one step ahead; if the projection enters an obstacle region
// the speed is halved, and if it still collides the robot is stopped. In
// both cases replan=true asks the loop to recompute the route next cycle.
func (c *Controller) Command(pose domain.Pose, target orb.Point) (domain.Command, bool) {
	dist := pose.DistanceTo(target)
	headingErr := domain.WrapAngle(pose.BearingTo(target) - pose.Heading)

	turn := clamp(c.turnGain*headingErr, -c.maxTurn, c.maxTurn)
	speed := math.Min(c.maxSpeed, dist) * math.Max(0, math.Cos(headingErr))

	if c.projectionFree(pose, turn, speed) {
		return domain.Command{Turn: turn, Speed: speed}, false
	}

	speed /= 2
	if speed > 0 && c.projectionFree(pose, turn, speed) {
		return domain.Command{Turn: turn, Speed: speed}, true
	}
	return domain.Stop(), true
}

// projectionFree checks that one step of the commanded motion stays inside
// free space.
func (c *Controller) projectionFree(pose domain.Pose, turn, speed float64) bool {
	if speed == 0 {
		return true
	}
	heading := pose.Heading + turn*c.horizon
	next := orb.Point{
		pose.Position.X() + speed*c.horizon*math.Cos(heading),
		pose.Position.Y() + speed*c.horizon*math.Sin(heading),
	}
	return c.arena.IsFree(next) && c.arena.SegmentFree(pose.Position, next)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
