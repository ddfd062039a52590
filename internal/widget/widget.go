// Package widget runs the chat client: it turns user events into requests,
// answers small talk locally and renders whatever the server sends back.
package widget

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"faqchat/internal/markup"
	"faqchat/internal/protocol"
)

var ErrConnectionClosed = errors.New("connection closed")

type EventKind int

const (
	// Input is free text typed by the user.
	Input EventKind = iota
	// Select is a click on a suggested question.
	Select
)

func (k EventKind) String() string {
	switch k {
	case Input:
		return "input"
	case Select:
		return "select"
	default:
		return "unknown"
	}
}

type Event struct {
	Kind EventKind
	Text string
}

// Transport is the part of transport.Transport the widget drives.
type Transport interface {
	Send(req protocol.Request) error
	Receive(ctx context.Context) <-chan []byte
	OnMessage(frame []byte) (protocol.Response, error)
	Err() error
}

// Matcher answers small talk without a round trip.
type Matcher interface {
	Match(input string) (string, bool)
}

type Widget struct {
	transport Transport
	renderer  markup.Renderer
	matcher   Matcher
	logger    zerolog.Logger
}

type Option func(*Widget)

func WithLogger(l zerolog.Logger) Option {
	return func(w *Widget) { w.logger = l.With().Str("component", "widget").Logger() }
}

func New(t Transport, r markup.Renderer, m Matcher, opts ...Option) *Widget {
	w := &Widget{
		transport: t,
		renderer:  r,
		matcher:   m,
		logger:    log.Logger.With().Str("component", "widget").Logger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run processes events and incoming frames on the calling goroutine until
// ctx is cancelled, events is closed or the connection ends. Events and
// frames are each handled in arrival order.
func (w *Widget) Run(ctx context.Context, events <-chan Event) error {
	frames := w.transport.Receive(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case frame, ok := <-frames:
			if !ok {
				if err := w.transport.Err(); err != nil {
					return errors.Wrap(err, "receive")
				}
				return ErrConnectionClosed
			}
			if _, err := w.transport.OnMessage(frame); err != nil {
				w.logger.Warn().Err(err).Msg("failed to handle frame")
			}
		}
	}
}

func (w *Widget) handle(ev Event) {
	switch ev.Kind {
	case Input:
		w.HandleInput(ev.Text)
	case Select:
		w.HandleSelect(ev.Text)
	default:
		w.logger.Warn().Stringer("kind", ev.Kind).Msg("unknown event")
	}
}

// HandleInput echoes the text, then either answers it locally or sends it to
// the server. Blank input is ignored.
func (w *Widget) HandleInput(text string) {
	if isBlank(text) {
		return
	}
	w.display(text, markup.DisplayOptions{Sanitize: true, Outgoing: true})
	if reply, ok := w.matcher.Match(text); ok {
		w.display(reply, markup.DisplayOptions{Sanitize: true})
		return
	}
	w.send(protocol.InputRequest{Input: text})
}

// HandleSelect echoes a chosen question and asks the server for its answer.
func (w *Widget) HandleSelect(question string) {
	w.display(question, markup.DisplayOptions{Sanitize: true, Outgoing: true})
	w.send(protocol.QuestionRequest{Question: question})
}

func (w *Widget) display(fragment string, opts markup.DisplayOptions) {
	if err := w.renderer.Display(fragment, opts); err != nil {
		w.logger.Error().Err(err).Msg("display failed")
	}
}

func (w *Widget) send(req protocol.Request) {
	if err := w.transport.Send(req); err != nil {
		w.logger.Warn().Err(err).Str("type", req.Type()).Msg("request dropped")
	}
}

func isBlank(s string) bool {
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\v', '\f':
		default:
			return false
		}
	}
	return true
}
