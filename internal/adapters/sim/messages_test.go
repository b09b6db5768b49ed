package sim

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robot-navigator/internal/domain"
	"robot-navigator/internal/ports"
)

func TestDecodeEventState(t *testing.T) {
	at := time.Now()
	ev, err := DecodeEvent([]byte(`{"type":"state","x":1.5,"y":2.5,"heading":0.25,"timestamp":1700000000.5}`), at)
	require.NoError(t, err)

	assert.Equal(t, ports.EventState, ev.Kind)
	require.NotNil(t, ev.State)
	assert.Equal(t, 1.5, ev.State.X)
	assert.Equal(t, 2.5, ev.State.Y)
	assert.Equal(t, 0.25, ev.State.Heading)
	assert.Equal(t, int64(1700000000), ev.State.Timestamp.Unix())
	assert.Equal(t, at, ev.At)
}

func TestDecodeEventFrame(t *testing.T) {
	raw := []byte{0x89, 0x50, 0x4e, 0x47}
	payload := `{"type":"frame","image":"` + base64.StdEncoding.EncodeToString(raw) + `"}`

	ev, err := DecodeEvent([]byte(payload), time.Now())
	require.NoError(t, err)

	assert.Equal(t, ports.EventFrame, ev.Kind)
	assert.Equal(t, raw, ev.Frame)
}

func TestDecodeEventControlMessages(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"type":"arena_ready"}`), time.Now())
	require.NoError(t, err)
	assert.Equal(t, ports.EventArenaReady, ev.Kind)

	ev, err = DecodeEvent([]byte(`{"type":"disconnect"}`), time.Now())
	require.NoError(t, err)
	assert.Equal(t, ports.EventDisconnect, ev.Kind)
}

func TestDecodeEventMalformed(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"not json", `{{{`},
		{"unknown tag", `{"type":"teleport","x":1}`},
		{"bad frame encoding", `{"type":"frame","image":"***"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeEvent([]byte(tc.payload), time.Now())
			assert.True(t, errors.Is(err, domain.ErrMalformedMessage), "got %v", err)
		})
	}
}

func TestEncodeCommand(t *testing.T) {
	data, err := EncodeCommand(domain.Command{Turn: -0.5, Speed: 0.75})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "move", decoded["type"])
	assert.Equal(t, -0.5, decoded["turn"])
	assert.Equal(t, 0.75, decoded["speed"])
}

func TestMockTransportIntegratesCommands(t *testing.T) {
	mock := &MockTransport{X: 1, Y: 1, Step: time.Second}
	require.NoError(t, mock.Connect(nil))

	// Drain the connect events: arena_ready then the initial state.
	ev, ok, err := mock.Receive(nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ports.EventArenaReady, ev.Kind)

	ev, _, err = mock.Receive(nil)
	require.NoError(t, err)
	require.NotNil(t, ev.State)
	first := ev.State.Timestamp

	require.NoError(t, mock.Send(nil, domain.Command{Turn: 0, Speed: 1}))

	ev, _, err = mock.Receive(nil)
	require.NoError(t, err)
	require.NotNil(t, ev.State)
	assert.InDelta(t, 2.0, ev.State.X, 1e-9, "one second at speed 1 heading 0")
	assert.InDelta(t, 1.0, ev.State.Y, 1e-9)
	assert.True(t, ev.State.Timestamp.After(first), "timestamps must increase")
}
