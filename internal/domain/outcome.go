package domain

import "time"

// Terminal classification of a navigation run.
type RunStatus int

const (
	StatusSucceeded RunStatus = iota + 1
	StatusFailed
	StatusTimedOut
)

func (s RunStatus) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Reason codes attached to a RunOutcome.
const (
	ReasonGoalReached      = "goal_reached"
	ReasonUnreachable      = "unreachable"
	ReasonTransport        = "transport_error"
	ReasonTimeBudget       = "time_budget_exceeded"
	ReasonCycleBudget      = "cycle_budget_exceeded"
	ReasonRetriesExhausted = "transport_retries_exhausted"
)

// The sole observable result of a run: created once, at loop termination.
type RunOutcome struct {
	Status     RunStatus
	Reason     string
	Cycles     int
	Visited    int
	StartedAt  time.Time
	FinishedAt time.Time
}

// ExitCode maps the outcome onto the process exit contract:
// 0 success, 1 failure, 2 timeout.
func (o RunOutcome) ExitCode() int {
	switch o.Status {
	case StatusSucceeded:
		return 0
	case StatusTimedOut:
		return 2
	default:
		return 1
	}
}
