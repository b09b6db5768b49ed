package sim

import (
	"context"
	"math"
	"time"

	"robot-navigator/internal/domain"
	"robot-navigator/internal/ports"
)

// MockTransport is an in-process simulator used by tests and dry runs.
//
// It integrates the commanded kinematics on every Send and queues the
// resulting telemetry, so a full control loop can run deterministically with
// no network and no clock dependence beyond the monotonically increasing
// simulated timestamps.
type MockTransport struct {
	// X, Y, Heading hold the simulated robot pose. Set them before Connect
	// to choose the start position.
	X, Y, Heading float64

	// Step is the integration interval per Send. Defaults to 100ms.
	Step time.Duration

	// DisconnectAfter, when positive, queues a disconnect event once that
	// many commands have been sent.
	DisconnectAfter int

	// TransientSendFailures makes the first N Sends fail with a transient
	// transport error before succeeding.
	TransientSendFailures int

	Sent []domain.Command

	queue   []ports.Event
	simTime time.Time
	sends   int
	down    bool
}

var _ ports.Transport = (*MockTransport)(nil)

func (m *MockTransport) Connect(ctx context.Context) error {
	if m.Step == 0 {
		m.Step = 100 * time.Millisecond
	}
	m.simTime = time.Now()
	m.queue = append(m.queue,
		ports.Event{Kind: ports.EventArenaReady, At: time.Now()},
	)
	m.pushState()
	return nil
}

func (m *MockTransport) Receive(ctx context.Context) (ports.Event, bool, error) {
	if len(m.queue) == 0 {
		// Robots report state continuously even when idle.
		m.pushState()
	}
	ev := m.queue[0]
	m.queue = m.queue[1:]
	return ev, true, nil
}

func (m *MockTransport) Send(ctx context.Context, cmd domain.Command) error {
	if m.down {
		return &domain.TransportError{Op: "send", Fatal: true, Err: errNotConnected}
	}
	if m.TransientSendFailures > 0 {
		m.TransientSendFailures--
		return &domain.TransportError{Op: "send", Fatal: false, Err: errNotConnected}
	}

	m.Sent = append(m.Sent, cmd)
	m.sends++

	dt := m.Step.Seconds()
	m.Heading = domain.WrapAngle(m.Heading + cmd.Turn*dt)
	m.X += cmd.Speed * dt * math.Cos(m.Heading)
	m.Y += cmd.Speed * dt * math.Sin(m.Heading)

	if m.DisconnectAfter > 0 && m.sends >= m.DisconnectAfter {
		m.down = true
		m.queue = append(m.queue, ports.Event{Kind: ports.EventDisconnect, At: time.Now()})
		return nil
	}

	m.pushState()
	return nil
}

func (m *MockTransport) Close() error {
	m.down = true
	return nil
}

func (m *MockTransport) pushState() {
	m.simTime = m.simTime.Add(m.Step)
	m.queue = append(m.queue, ports.Event{
		Kind: ports.EventState,
		State: &ports.StateUpdate{
			X:         m.X,
			Y:         m.Y,
			Heading:   m.Heading,
			Timestamp: m.simTime,
		},
		At: time.Now(),
	})
}
