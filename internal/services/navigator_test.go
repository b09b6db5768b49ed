package services

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"robot-navigator/internal/adapters/perception"
	"robot-navigator/internal/adapters/sim"
	"robot-navigator/internal/config"
	"robot-navigator/internal/domain"
	"robot-navigator/internal/ports"
)

func loopConfig() config.Config {
	cfg := config.Defaults()
	cfg.MaxRunTime = 60
	cfg.MaxCycles = 500
	cfg.CycleTimeout = 1
	cfg.AcceptanceRadius = 0.5
	cfg.CellSize = 0.5
	cfg.SafetyMargin = 0.1
	cfg.RetryBackoff = 0.001
	return cfg
}

func TestNavigatorCompletesStraightLineMission(t *testing.T) {
	arena := openArena(t, nil, []orb.Point{{2, 1}}, orb.Point{3, 1})
	mock := &sim.MockTransport{X: 1, Y: 1, Heading: 0}
	cfg := loopConfig()

	nav := NewNavigator(cfg, arena, mock, perception.NewTelemetryEstimator(0), nil)
	outcome := nav.Run(context.Background())

	if outcome.Status != domain.StatusSucceeded {
		t.Fatalf("status = %s (%s), want succeeded", outcome.Status, outcome.Reason)
	}
	if outcome.Reason != domain.ReasonGoalReached {
		t.Errorf("reason = %q, want %q", outcome.Reason, domain.ReasonGoalReached)
	}
	if outcome.Visited != 1 {
		t.Errorf("visited = %d, want 1", outcome.Visited)
	}
	if len(mock.Sent) == 0 {
		t.Error("no commands were sent")
	}
	if outcome.Cycles == 0 || outcome.Cycles > cfg.MaxCycles {
		t.Errorf("cycles = %d, want within (0, %d]", outcome.Cycles, cfg.MaxCycles)
	}
}

func TestNavigatorFailsOnDisconnect(t *testing.T) {
	arena := openArena(t, nil, []orb.Point{{8, 8}}, orb.Point{9, 9})
	mock := &sim.MockTransport{X: 1, Y: 1, DisconnectAfter: 3}

	nav := NewNavigator(loopConfig(), arena, mock, perception.NewTelemetryEstimator(0), nil)
	outcome := nav.Run(context.Background())

	if outcome.Status != domain.StatusFailed {
		t.Fatalf("status = %s, want failed", outcome.Status)
	}
	if outcome.Reason != domain.ReasonTransport {
		t.Errorf("reason = %q, want %q", outcome.Reason, domain.ReasonTransport)
	}
	if len(mock.Sent) != 3 {
		t.Errorf("commands after disconnect: sent = %d, want 3", len(mock.Sent))
	}
}

// lingeringTransport reports a disconnect but keeps its channel writable, the
// way the real client does when the peer announces the disconnect in-band.
type lingeringTransport struct {
	events              []ports.Event
	disconnected        bool
	sentAfterDisconnect int
}

func (l *lingeringTransport) Connect(ctx context.Context) error { return nil }

func (l *lingeringTransport) Receive(ctx context.Context) (ports.Event, bool, error) {
	if len(l.events) == 0 {
		return ports.Event{}, false, nil
	}
	ev := l.events[0]
	l.events = l.events[1:]
	if ev.Kind == ports.EventDisconnect {
		l.disconnected = true
	}
	return ev, true, nil
}

func (l *lingeringTransport) Send(ctx context.Context, cmd domain.Command) error {
	if l.disconnected {
		l.sentAfterDisconnect++
	}
	return nil
}

func (l *lingeringTransport) Close() error { return nil }

func TestNavigatorSendsNothingAfterDisconnect(t *testing.T) {
	arena := openArena(t, nil, []orb.Point{{8, 8}}, orb.Point{9, 9})
	now := time.Now()
	transport := &lingeringTransport{
		events: []ports.Event{
			{Kind: ports.EventArenaReady, At: now},
			{Kind: ports.EventState, State: &ports.StateUpdate{X: 1, Y: 1, Timestamp: now}, At: now},
			{Kind: ports.EventDisconnect, At: now},
		},
	}

	nav := NewNavigator(loopConfig(), arena, transport, perception.NewTelemetryEstimator(0), nil)
	outcome := nav.Run(context.Background())

	if outcome.Status != domain.StatusFailed || outcome.Reason != domain.ReasonTransport {
		t.Fatalf("outcome = %s/%s, want failed/%s", outcome.Status, outcome.Reason, domain.ReasonTransport)
	}
	if transport.sentAfterDisconnect != 0 {
		t.Errorf("commands sent after disconnect = %d, want 0", transport.sentAfterDisconnect)
	}
}

func TestNavigatorVisitsAllWaypointsThenGoal(t *testing.T) {
	arena := openArena(t, nil, []orb.Point{{2, 2}, {8, 8}}, orb.Point{9, 9})
	planner := NewPlanner(arena, 0.5, 0.2)

	route, err := planner.Plan(domain.Pose{Position: orb.Point{0, 0}}, arena.Waypoints())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []orb.Point{{2, 2}, {8, 8}, {9, 9}}; !reflect.DeepEqual(route.Stops, want) {
		t.Fatalf("stops = %v, want %v", route.Stops, want)
	}

	mock := &sim.MockTransport{X: 0, Y: 0, Heading: 0}
	cfg := loopConfig()
	cfg.MaxCycles = 2000

	nav := NewNavigator(cfg, arena, mock, perception.NewTelemetryEstimator(0), nil)
	outcome := nav.Run(context.Background())

	if outcome.Status != domain.StatusSucceeded {
		t.Fatalf("status = %s (%s), want succeeded", outcome.Status, outcome.Reason)
	}
	if outcome.Visited != 2 {
		t.Errorf("visited = %d, want 2", outcome.Visited)
	}
}

func TestNavigatorTimesOutOnCycleBudget(t *testing.T) {
	arena := openArena(t, nil, []orb.Point{{8, 8}}, orb.Point{9, 9})
	mock := &sim.MockTransport{X: 1, Y: 1}
	cfg := loopConfig()
	cfg.MaxCycles = 5

	nav := NewNavigator(cfg, arena, mock, perception.NewTelemetryEstimator(0), nil)
	outcome := nav.Run(context.Background())

	if outcome.Status != domain.StatusTimedOut {
		t.Fatalf("status = %s, want timed_out", outcome.Status)
	}
	if outcome.Reason != domain.ReasonCycleBudget {
		t.Errorf("reason = %q, want %q", outcome.Reason, domain.ReasonCycleBudget)
	}
	if outcome.Cycles != 5 {
		t.Errorf("cycles = %d, want 5", outcome.Cycles)
	}
}

func TestNavigatorFailsWhenWaypointUnreachable(t *testing.T) {
	walls := []orb.Ring{
		domain.RectRing(4, 4, 6, 4.3),
		domain.RectRing(4, 5.7, 6, 6),
		domain.RectRing(4, 4, 4.3, 6),
		domain.RectRing(5.7, 4, 6, 6),
	}
	arena := openArena(t, walls, []orb.Point{{5, 5}}, orb.Point{9, 9})
	mock := &sim.MockTransport{X: 1, Y: 1}

	nav := NewNavigator(loopConfig(), arena, mock, perception.NewTelemetryEstimator(0), nil)
	outcome := nav.Run(context.Background())

	if outcome.Status != domain.StatusFailed {
		t.Fatalf("status = %s, want failed", outcome.Status)
	}
	if outcome.Reason != domain.ReasonUnreachable {
		t.Errorf("reason = %q, want %q", outcome.Reason, domain.ReasonUnreachable)
	}
}

func TestNavigatorExhaustsTransportRetries(t *testing.T) {
	arena := openArena(t, nil, []orb.Point{{8, 8}}, orb.Point{9, 9})
	mock := &sim.MockTransport{X: 1, Y: 1, TransientSendFailures: 100}
	cfg := loopConfig()
	cfg.TransportRetries = 2

	nav := NewNavigator(cfg, arena, mock, perception.NewTelemetryEstimator(0), nil)
	outcome := nav.Run(context.Background())

	if outcome.Status != domain.StatusFailed {
		t.Fatalf("status = %s, want failed", outcome.Status)
	}
	if outcome.Reason != domain.ReasonRetriesExhausted {
		t.Errorf("reason = %q, want %q", outcome.Reason, domain.ReasonRetriesExhausted)
	}
}

func TestNavigatorVisitedFlagsAreMonotonic(t *testing.T) {
	arena := openArena(t, nil, []orb.Point{{2, 1}, {8, 8}}, orb.Point{3, 1})
	mock := &sim.MockTransport{X: 1.8, Y: 1}
	cfg := loopConfig()
	cfg.MaxCycles = 20 // not enough to finish the tour

	nav := NewNavigator(cfg, arena, mock, perception.NewTelemetryEstimator(0), nil)
	outcome := nav.Run(context.Background())

	// Waypoint 0 starts inside the acceptance radius, so it is visited on the
	// first accepted pose and stays visited as the robot drives away.
	if outcome.Visited != 1 {
		t.Errorf("visited = %d, want 1", outcome.Visited)
	}
	for _, wp := range nav.waypoints {
		if wp.Index == 0 && !wp.Visited {
			t.Error("waypoint 0 lost its visited flag")
		}
		if wp.Index == 1 && wp.Visited {
			t.Error("waypoint 1 was never reached but is marked visited")
		}
	}
}
