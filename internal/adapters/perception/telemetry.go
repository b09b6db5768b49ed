package perception

import (
	"time"

	"github.com/paulmach/orb"

	"robot-navigator/internal/domain"
	"robot-navigator/internal/ports"
)

// TelemetryEstimator trusts the simulator's own coordinate reports.
//
// It rejects observations older than maxAge or older than the last accepted
// timestamp, and derives velocity by finite difference against the previous
// accepted pose. Telemetry carries no noise, so confidence is always 1.
type TelemetryEstimator struct {
	maxAge time.Duration
	prev   domain.Pose
	have   bool
}

var _ ports.StateEstimator = (*TelemetryEstimator)(nil)

func NewTelemetryEstimator(maxAge time.Duration) *TelemetryEstimator {
	return &TelemetryEstimator{maxAge: maxAge}
}

func (e *TelemetryEstimator) Estimate(ev ports.Event) (domain.Pose, error) {
	if ev.Kind != ports.EventState || ev.State == nil {
		return domain.Pose{}, domain.ErrStaleObservation
	}
	if e.maxAge > 0 && time.Since(ev.At) > e.maxAge {
		return domain.Pose{}, domain.ErrStaleObservation
	}
	if e.have && ev.State.Timestamp.Before(e.prev.Timestamp) {
		return domain.Pose{}, domain.ErrStaleObservation
	}

	pose := domain.Pose{
		Position:   orb.Point{ev.State.X, ev.State.Y},
		Heading:    domain.WrapAngle(ev.State.Heading),
		Confidence: 1,
		Timestamp:  ev.State.Timestamp,
	}

	if e.have {
		dt := pose.Timestamp.Sub(e.prev.Timestamp).Seconds()
		if dt > 0 {
			pose.Velocity = orb.Point{
				(pose.Position.X() - e.prev.Position.X()) / dt,
				(pose.Position.Y() - e.prev.Position.Y()) / dt,
			}
		}
	}

	e.prev = pose
	e.have = true
	return pose, nil
}
