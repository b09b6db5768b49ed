package ports

import "robot-navigator/internal/domain"

// Contract for turning a raw observation into a canonical Pose.
//
// Implementations must return domain.ErrStaleObservation instead of a guessed
// pose when the observation is unusable (wrong kind, malformed, or older than
// the configured age threshold). Noisy sources report their error bound via
// Pose.Confidence.
type StateEstimator interface {
	Estimate(ev Event) (domain.Pose, error)
}
