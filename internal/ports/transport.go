package ports

import (
	"context"
	"time"

	"robot-navigator/internal/domain"
)

// Kind of a decoded inbound simulator message.
type EventKind int

const (
	EventState EventKind = iota + 1
	EventFrame
	EventArenaReady
	EventDisconnect
)

func (k EventKind) String() string {
	switch k {
	case EventState:
		return "state"
	case EventFrame:
		return "frame"
	case EventArenaReady:
		return "arena_ready"
	case EventDisconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}

// Direct coordinate telemetry reported by the simulator.
type StateUpdate struct {
	X         float64
	Y         float64
	Heading   float64
	Timestamp time.Time
}

// One inbound message, decoded exactly once at the transport boundary into a
// tagged variant. At is the local receive time, used for staleness checks.
type Event struct {
	Kind  EventKind
	State *StateUpdate
	Frame []byte // encoded image bytes for the vision variant
	At    time.Time
}

// Boundary to the persistent simulator channel.
//
// Receive presents a synchronous-per-cycle contract: it returns the next
// decoded event, or ok=false without error when nothing arrived before the
// context deadline. Implementations own reconnect and timeout handling;
// failures surface as *domain.TransportError.
type Transport interface {
	Connect(ctx context.Context) error
	Receive(ctx context.Context) (ev Event, ok bool, err error)
	Send(ctx context.Context, cmd domain.Command) error
	Close() error
}
