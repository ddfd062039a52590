// Package transport owns the websocket connection of the chat client.
//
// A Transport serializes outgoing requests, delivers incoming frames in
// arrival order, and turns each frame into rendered output through the
// response registry. It never reconnects and never queues: a request sent
// while no connection is open is dropped with ErrNotConnected.
package transport

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"faqchat/internal/markup"
	"faqchat/internal/protocol"
)

// ErrNotConnected is returned by Send when no connection is open.
var ErrNotConnected = errors.New("transport: not connected")

// Conn is the part of *websocket.Conn the transport uses.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type Option func(*Transport)

func WithLogger(l zerolog.Logger) Option {
	return func(t *Transport) {
		t.logger = l.With().Str("component", "transport").Logger()
	}
}

func WithHandshakeTimeout(d time.Duration) Option {
	return func(t *Transport) {
		t.handshakeTimeout = d
	}
}

type Transport struct {
	registry *protocol.Registry[protocol.Response]
	renderer markup.Renderer
	pick     markup.Picker
	logger   zerolog.Logger

	handshakeTimeout time.Duration

	mu     sync.Mutex
	conn   Conn
	closed bool
	err    error
	frames chan []byte
}

func New(registry *protocol.Registry[protocol.Response], renderer markup.Renderer, pick markup.Picker, opts ...Option) *Transport {
	t := &Transport{
		registry:         registry,
		renderer:         renderer,
		pick:             pick,
		logger:           log.Logger.With().Str("component", "transport").Logger(),
		handshakeTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Dial opens a websocket to url and attaches it.
func (t *Transport) Dial(ctx context.Context, url string) error {
	dialer := websocket.Dialer{HandshakeTimeout: t.handshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return errors.Wrapf(err, "dial %s", url)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Attach(conn)
	t.logger.Info().Str("url", url).Msg("connected")
	return nil
}

// Attach makes conn the live connection. It is meant for connections that
// are already open.
func (t *Transport) Attach(conn Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conn = conn
	t.closed = false
	t.err = nil
}

// Send serializes req and writes it as one text frame.
func (t *Transport) Send(req protocol.Request) error {
	b, err := protocol.Marshal(req)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil || t.closed {
		return ErrNotConnected
	}
	if err := t.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return errors.Wrapf(err, "send %s", req.Type())
	}
	t.logger.Debug().Str("type", req.Type()).Int("bytes", len(b)).Msg("frame sent")
	return nil
}

// Receive starts the reader and returns the channel of incoming text frames.
// The channel is closed when the connection ends or ctx is done; Err then
// reports why. Calling Receive again returns the same channel.
func (t *Transport) Receive(ctx context.Context) <-chan []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.frames != nil {
		return t.frames
	}
	out := make(chan []byte)
	t.frames = out
	conn := t.conn
	if conn == nil {
		t.err = ErrNotConnected
		close(out)
		return out
	}
	go t.readLoop(ctx, conn, out)
	return out
}

func (t *Transport) readLoop(ctx context.Context, conn Conn, out chan<- []byte) {
	defer close(out)
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			t.setErr(err)
			return
		}
		if mt != websocket.TextMessage {
			t.logger.Debug().Int("message_type", mt).Msg("ignoring non-text frame")
			continue
		}
		select {
		case out <- data:
		case <-ctx.Done():
			return
		}
	}
}

func (t *Transport) setErr(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return
	}
	t.err = errors.Wrap(err, "connection lost")
}

// Err reports why the frame channel closed. It is nil after a normal close.
func (t *Transport) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// OnMessage hydrates one frame and renders the response. The response is
// returned even when rendering fails.
func (t *Transport) OnMessage(frame []byte) (protocol.Response, error) {
	resp, err := t.registry.Unmarshal(frame)
	if err != nil {
		return nil, err
	}
	t.logger.Debug().Str("type", resp.Type()).Msg("frame received")
	if err := markup.Render(t.renderer, resp, t.pick); err != nil {
		return resp, errors.Wrapf(err, "render %s", resp.Type())
	}
	return resp, nil
}

// Close sends a close frame and closes the connection. Later calls to Send
// fail with ErrNotConnected.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil || t.closed {
		return nil
	}
	t.closed = true
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := t.conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
		t.logger.Debug().Err(err).Msg("close frame not sent")
	}
	return t.conn.Close()
}
