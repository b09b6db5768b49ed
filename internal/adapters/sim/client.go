package sim

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"robot-navigator/internal/domain"
	"robot-navigator/internal/ports"
)

const (
	dialTimeout  = 5 * time.Second
	writeTimeout = 2 * time.Second
	eventBuffer  = 64
	connectTries = 3
	connectPause = 500 * time.Millisecond
)

// Client is the WebSocket transport to the simulator.
//
// A single reader goroutine decodes inbound frames into a buffered channel;
// Receive drains that channel under the caller's context so the control loop
// stays synchronous. Send writes directly with a deadline.
type Client struct {
	url string

	mu     sync.Mutex
	conn   *websocket.Conn
	events chan ports.Event
	closed bool
}

var _ ports.Transport = (*Client)(nil)

func NewClient(url string) *Client {
	return &Client{url: url}
}

// Connect dials the simulator, retrying a few times before giving up, and
// starts the reader goroutine.
func (c *Client) Connect(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= connectTries; attempt++ {
		dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
		conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, c.url, nil)
		cancel()
		if err == nil {
			c.mu.Lock()
			c.conn = conn
			c.events = make(chan ports.Event, eventBuffer)
			c.closed = false
			c.mu.Unlock()

			go c.readLoop(conn)
			log.Printf("connected url=%s attempt=%d", c.url, attempt)
			return nil
		}

		lastErr = err
		log.Printf("dial failed url=%s attempt=%d/%d: %v", c.url, attempt, connectTries, err)
		select {
		case <-ctx.Done():
			return &domain.TransportError{Op: "connect", Fatal: true, Err: ctx.Err()}
		case <-time.After(connectPause):
		}
	}
	return &domain.TransportError{Op: "connect", Fatal: true, Err: lastErr}
}

// readLoop decodes frames until the connection dies, then queues a
// disconnect event so the loop observes the closure in order.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			events := c.events
			c.mu.Unlock()
			if !closed {
				log.Printf("read loop ended: %v", err)
				events <- ports.Event{Kind: ports.EventDisconnect, At: time.Now()}
			}
			return
		}

		ev, err := DecodeEvent(data, time.Now())
		if err != nil {
			// Drop malformed frames here; the loop only sees decodable events.
			log.Printf("dropping inbound frame: %v", err)
			continue
		}

		c.mu.Lock()
		events := c.events
		c.mu.Unlock()
		select {
		case events <- ev:
		default:
			// Buffer full: the loop is behind, so the oldest event is the
			// least valuable. Drop one and queue the newest.
			<-events
			events <- ev
		}
	}
}

// Receive returns the next decoded event, or ok=false when the context
// deadline passes with nothing queued.
func (c *Client) Receive(ctx context.Context) (ports.Event, bool, error) {
	c.mu.Lock()
	events := c.events
	c.mu.Unlock()
	if events == nil {
		return ports.Event{}, false, &domain.TransportError{Op: "receive", Fatal: true, Err: errNotConnected}
	}

	select {
	case ev := <-events:
		return ev, true, nil
	case <-ctx.Done():
		return ports.Event{}, false, nil
	}
}

// Send encodes and writes one command with a bounded deadline.
func (c *Client) Send(ctx context.Context, cmd domain.Command) error {
	data, err := EncodeCommand(cmd)
	if err != nil {
		return &domain.TransportError{Op: "send", Fatal: false, Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.closed {
		return &domain.TransportError{Op: "send", Fatal: true, Err: errNotConnected}
	}

	deadline := time.Now().Add(writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.conn.SetWriteDeadline(deadline)

	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		fatal := websocket.IsUnexpectedCloseError(err) || websocket.IsCloseError(err, websocket.CloseNormalClosure)
		return &domain.TransportError{Op: "send", Fatal: fatal, Err: err}
	}
	return nil
}

// Close tears down the connection. Subsequent Sends fail fatally.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.closed {
		return nil
	}
	c.closed = true

	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout),
	)
	return c.conn.Close()
}

var errNotConnected = &notConnectedError{}

type notConnectedError struct{}

func (*notConnectedError) Error() string { return "not connected" }
