package services

import (
	"context"
	"errors"
	"log"
	"time"

	"robot-navigator/internal/config"
	"robot-navigator/internal/domain"
	"robot-navigator/internal/platform/obs"
	"robot-navigator/internal/ports"
)

// Navigator owns the control loop: receive one observation, estimate the
// pose, update mission progress, replan when needed, and emit one bounded
// motion command. All mutable state lives on this struct and is touched by
// exactly one goroutine; the adapters behind the ports handle their own
// concurrency.
type Navigator struct {
	cfg        config.Config
	arena      *domain.Arena
	transport  ports.Transport
	estimator  ports.StateEstimator
	planner    *Planner
	controller *Controller
	metrics    *obs.Metrics // nil disables instrumentation

	waypoints     []domain.Waypoint
	route         *domain.Route
	pose          domain.Pose
	havePose      bool
	lastPlan      time.Time
	failures      int  // consecutive transient transport failures
	transportDown bool // run ended because the channel failed or disconnected
}

func NewNavigator(
	cfg config.Config,
	arena *domain.Arena,
	transport ports.Transport,
	estimator ports.StateEstimator,
	metrics *obs.Metrics,
) *Navigator {
	return &Navigator{
		cfg:        cfg,
		arena:      arena,
		transport:  transport,
		estimator:  estimator,
		planner:    NewPlanner(arena, cfg.CellSize, cfg.SafetyMargin),
		controller: NewController(arena, cfg.MaxSpeed, cfg.MaxTurnRate),
		metrics:    metrics,
		waypoints:  arena.Waypoints(),
	}
}

// Run drives the loop to a terminal outcome. It always returns a populated
// RunOutcome; the caller maps it onto the process exit code.
func (n *Navigator) Run(ctx context.Context) domain.RunOutcome {
	started := time.Now()
	defer obs.Time(ctx, "run")(nil)

	outcome := func(status domain.RunStatus, reason string, cycles int) domain.RunOutcome {
		return domain.RunOutcome{
			Status:     status,
			Reason:     reason,
			Cycles:     cycles,
			Visited:    n.visitedCount(),
			StartedAt:  started,
			FinishedAt: time.Now(),
		}
	}

	if err := n.transport.Connect(ctx); err != nil {
		log.Printf("connect failed: %v", err)
		return outcome(domain.StatusFailed, domain.ReasonTransport, 0)
	}
	defer n.stopAndClose()

	deadline := started.Add(n.cfg.MaxRunTimeDuration())

	for cycle := 1; cycle <= n.cfg.MaxCycles; cycle++ {
		if time.Now().After(deadline) {
			log.Printf("run over time budget cycles=%d", cycle-1)
			return outcome(domain.StatusTimedOut, domain.ReasonTimeBudget, cycle-1)
		}
		n.count(func(m *obs.Metrics) { m.Cycles.Inc() })

		done, status, reason := n.cycle(ctx, cycle)
		if done {
			return outcome(status, reason, cycle)
		}
	}

	log.Printf("run over cycle budget cycles=%d", n.cfg.MaxCycles)
	return outcome(domain.StatusTimedOut, domain.ReasonCycleBudget, n.cfg.MaxCycles)
}

// cycle runs one iteration. done=true carries the terminal status.
func (n *Navigator) cycle(ctx context.Context, num int) (done bool, status domain.RunStatus, reason string) {
	cycleCtx, cancel := context.WithTimeout(ctx, n.cfg.CycleTimeoutDuration())
	defer cancel()

	ev, ok, err := n.transport.Receive(cycleCtx)
	if err != nil {
		if errors.Is(err, domain.ErrMalformedMessage) {
			log.Printf("cycle=%d dropping malformed message: %v", num, err)
			n.count(func(m *obs.Metrics) { m.StaleObservations.Inc() })
			return false, 0, ""
		}
		return n.transportFailure(num, "receive", err)
	}
	if !ok {
		// Nothing arrived before the cycle deadline; try again.
		return false, 0, ""
	}

	switch ev.Kind {
	case ports.EventDisconnect:
		log.Printf("cycle=%d simulator disconnected", num)
		n.transportDown = true
		return true, domain.StatusFailed, domain.ReasonTransport
	case ports.EventArenaReady:
		return false, 0, ""
	}

	pose, err := n.estimator.Estimate(ev)
	if err != nil {
		if errors.Is(err, domain.ErrStaleObservation) {
			n.count(func(m *obs.Metrics) { m.StaleObservations.Inc() })
			return false, 0, ""
		}
		log.Printf("cycle=%d estimate failed: %v", num, err)
		n.count(func(m *obs.Metrics) { m.StaleObservations.Inc() })
		return false, 0, ""
	}

	// Observations can arrive out of order; only the newest pose wins.
	if n.havePose && pose.Timestamp.Before(n.pose.Timestamp) {
		return false, 0, ""
	}
	n.pose = pose
	n.havePose = true

	progressed := n.markVisited()

	if n.missionComplete() {
		log.Printf("cycle=%d goal reached visited=%d", num, n.visitedCount())
		return true, domain.StatusSucceeded, domain.ReasonGoalReached
	}

	if n.needsReplan(progressed) {
		route, err := n.planner.Plan(n.pose, n.unvisited())
		if err != nil {
			log.Printf("cycle=%d planning failed: %v", num, err)
			return true, domain.StatusFailed, domain.ReasonUnreachable
		}
		n.route = route
		n.lastPlan = time.Now()
		n.count(func(m *obs.Metrics) { m.Replans.Inc() })
	}

	n.advanceLeg()

	cmd, replanHint := n.controller.Command(n.pose, n.route.NextTarget())

	if err := n.transport.Send(ctx, cmd); err != nil {
		return n.transportFailure(num, "send", err)
	}
	n.failures = 0
	n.count(func(m *obs.Metrics) { m.CommandsSent.Inc() })

	if replanHint {
		// Projection veto: recompute the route on the next cycle.
		n.route = nil
	}
	return false, 0, ""
}

// transportFailure classifies a transport error: fatal errors end the run
// immediately, transient ones are retried with backoff up to the configured
// limit.
func (n *Navigator) transportFailure(cycle int, op string, err error) (bool, domain.RunStatus, string) {
	if domain.IsFatalTransport(err) {
		log.Printf("cycle=%d %s failed fatally: %v", cycle, op, err)
		n.transportDown = true
		return true, domain.StatusFailed, domain.ReasonTransport
	}

	n.failures++
	if n.failures > n.cfg.TransportRetries {
		log.Printf("cycle=%d %s retries exhausted after %d attempts: %v", cycle, op, n.failures, err)
		n.transportDown = true
		return true, domain.StatusFailed, domain.ReasonRetriesExhausted
	}

	log.Printf("cycle=%d %s failed (attempt %d/%d): %v", cycle, op, n.failures, n.cfg.TransportRetries, err)
	time.Sleep(n.cfg.RetryBackoffDuration())
	return false, 0, ""
}

// markVisited flips waypoints within the acceptance radius. The flag only
// ever moves from false to true.
func (n *Navigator) markVisited() bool {
	progressed := false
	for i := range n.waypoints {
		if n.waypoints[i].Visited {
			continue
		}
		if n.pose.DistanceTo(n.waypoints[i].Location) <= n.cfg.AcceptanceRadius {
			n.waypoints[i].Visited = true
			progressed = true
			log.Printf("waypoint=%d visited", n.waypoints[i].Index)
		}
	}
	if progressed {
		visited := n.visitedCount()
		n.count(func(m *obs.Metrics) { m.WaypointsVisited.Set(float64(visited)) })
	}
	return progressed
}

func (n *Navigator) missionComplete() bool {
	for _, wp := range n.waypoints {
		if !wp.Visited {
			return false
		}
	}
	return n.pose.DistanceTo(n.arena.Goal()) <= n.cfg.AcceptanceRadius
}

func (n *Navigator) needsReplan(progressed bool) bool {
	if n.route == nil || progressed {
		return true
	}
	return time.Since(n.lastPlan) >= n.cfg.ReplanningIntervalDuration()
}

// advanceLeg drops leg vertices the robot has already passed so the motion
// target stays ahead of the pose.
func (n *Navigator) advanceLeg() {
	for len(n.route.Leg) > 1 && n.pose.DistanceTo(n.route.Leg[0]) <= n.cfg.AcceptanceRadius {
		n.route.Leg = n.route.Leg[1:]
	}
}

func (n *Navigator) unvisited() []domain.Waypoint {
	out := make([]domain.Waypoint, 0, len(n.waypoints))
	for _, wp := range n.waypoints {
		if !wp.Visited {
			out = append(out, wp)
		}
	}
	return out
}

func (n *Navigator) visitedCount() int {
	count := 0
	for _, wp := range n.waypoints {
		if wp.Visited {
			count++
		}
	}
	return count
}

// stopAndClose sends a best-effort stop before the channel goes down. When
// the run ended on a disconnect or transport failure the stop is skipped:
// nothing more may be sent after the channel is lost.
func (n *Navigator) stopAndClose() {
	if !n.transportDown {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := n.transport.Send(ctx, domain.Stop()); err != nil {
			log.Printf("final stop not delivered: %v", err)
		}
	}
	if err := n.transport.Close(); err != nil {
		log.Printf("transport close: %v", err)
	}
}

func (n *Navigator) count(fn func(*obs.Metrics)) {
	if n.metrics != nil {
		fn(n.metrics)
	}
}
