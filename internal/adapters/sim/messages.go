package sim

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"robot-navigator/internal/domain"
	"robot-navigator/internal/ports"
)

// Wire format of the simulator channel. Every message is a JSON object
// tagged by "type"; timestamps are Unix seconds with fractional part.
type wireMessage struct {
	Type      string  `json:"type"`
	X         float64 `json:"x,omitempty"`
	Y         float64 `json:"y,omitempty"`
	Heading   float64 `json:"heading,omitempty"`
	Timestamp float64 `json:"timestamp,omitempty"`
	Image     string  `json:"image,omitempty"` // base64-encoded frame
}

type wireCommand struct {
	Type  string  `json:"type"`
	Turn  float64 `json:"turn"`
	Speed float64 `json:"speed"`
}

// DecodeEvent parses one inbound payload into a tagged event. Unknown tags
// and unparseable payloads yield domain.ErrMalformedMessage so the loop can
// drop them without ending the run.
func DecodeEvent(data []byte, at time.Time) (ports.Event, error) {
	var msg wireMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ports.Event{}, fmt.Errorf("%w: %v", domain.ErrMalformedMessage, err)
	}

	switch msg.Type {
	case "state":
		sec := int64(msg.Timestamp)
		nsec := int64((msg.Timestamp - float64(sec)) * 1e9)
		return ports.Event{
			Kind: ports.EventState,
			State: &ports.StateUpdate{
				X:         msg.X,
				Y:         msg.Y,
				Heading:   msg.Heading,
				Timestamp: time.Unix(sec, nsec),
			},
			At: at,
		}, nil
	case "frame":
		frame, err := base64.StdEncoding.DecodeString(msg.Image)
		if err != nil {
			return ports.Event{}, fmt.Errorf("%w: frame image: %v", domain.ErrMalformedMessage, err)
		}
		return ports.Event{Kind: ports.EventFrame, Frame: frame, At: at}, nil
	case "arena_ready":
		return ports.Event{Kind: ports.EventArenaReady, At: at}, nil
	case "disconnect":
		return ports.Event{Kind: ports.EventDisconnect, At: at}, nil
	default:
		return ports.Event{}, fmt.Errorf("%w: unknown type %q", domain.ErrMalformedMessage, msg.Type)
	}
}

// EncodeCommand serializes one outbound motion command.
func EncodeCommand(cmd domain.Command) ([]byte, error) {
	data, err := json.Marshal(wireCommand{Type: "move", Turn: cmd.Turn, Speed: cmd.Speed})
	if err != nil {
		return nil, fmt.Errorf("encode command: %w", err)
	}
	return data, nil
}
