// Package live maintains the push channel to the board backend. The server
// broadcasts a message whenever any client mutates shared state; board
// changes carry a full snapshot, tag catalog changes carry none.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/hylla/tavle/internal/domain"
)

const (
	// writeWait bounds control-frame writes to the server.
	writeWait = 10 * time.Second

	// pongWait is how long we wait for a pong before declaring the
	// connection dead.
	pongWait = 60 * time.Second

	// pingPeriod is the ping interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize caps inbound frames; a board snapshot fits well under.
	maxMessageSize = 1 << 20
)

// EventType names the push messages the server sends.
type EventType string

const (
	// EventBoardChanged carries a fresh board snapshot.
	EventBoardChanged EventType = "board_changed"

	// EventTagsChanged signals the tag catalog moved; it carries no payload.
	EventTagsChanged EventType = "tags_changed"
)

// Event is one push message, or a terminal connection error.
type Event struct {
	Type  EventType
	Board *domain.Board
	Err   error
}

// ErrAlreadyStarted reports a second Start on a running listener.
var ErrAlreadyStarted = errors.New("listener already started")

type wireMessage struct {
	Type  EventType     `json:"type"`
	Board *domain.Board `json:"board,omitempty"`
}

// Listener holds one websocket connection and forwards decoded events.
type Listener struct {
	url    string
	dialer *websocket.Dialer
	logger *log.Logger

	mu      sync.Mutex
	started bool

	events chan Event
}

// Option configures a Listener.
type Option func(*Listener)

// WithDialer swaps the websocket dialer, mainly for tests.
func WithDialer(d *websocket.Dialer) Option {
	return func(l *Listener) {
		if d != nil {
			l.dialer = d
		}
	}
}

// WithLogger attaches a logger for connection lifecycle messages.
func WithLogger(logger *log.Logger) Option {
	return func(l *Listener) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New builds a listener for the given websocket endpoint.
func New(url string, opts ...Option) *Listener {
	l := &Listener{
		url:    url,
		dialer: websocket.DefaultDialer,
		logger: log.Default(),
		events: make(chan Event, 8),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Events returns the channel push events arrive on. The channel closes after
// a terminal Event carrying Err.
func (l *Listener) Events() <-chan Event { return l.events }

// Start dials the endpoint and begins forwarding events. It returns once the
// connection is established; the pumps run until ctx is canceled or the
// connection fails. Start may be called at most once.
func (l *Listener) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return ErrAlreadyStarted
	}
	l.started = true
	l.mu.Unlock()

	conn, resp, err := l.dialer.DialContext(ctx, l.url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		close(l.events)
		return fmt.Errorf("dial %s: %w", l.url, err)
	}
	l.logger.Debug("push channel connected", "url", l.url)

	go l.pingLoop(ctx, conn)
	go l.readPump(ctx, conn)
	return nil
}

func (l *Listener) readPump(ctx context.Context, conn *websocket.Conn) {
	defer close(l.events)
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			l.logger.Debug("push channel closed", "err", err)
			l.emit(ctx, Event{Err: err})
			return
		}
		var msg wireMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			l.logger.Warn("discarding malformed push message", "err", err)
			continue
		}
		switch msg.Type {
		case EventBoardChanged:
			l.emit(ctx, Event{Type: EventBoardChanged, Board: msg.Board})
		case EventTagsChanged:
			l.emit(ctx, Event{Type: EventTagsChanged})
		default:
			l.logger.Debug("ignoring unknown push message", "type", msg.Type)
		}
	}
}

func (l *Listener) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			deadline := time.Now().Add(writeWait)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			conn.Close()
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				conn.Close()
				return
			}
		}
	}
}

func (l *Listener) emit(ctx context.Context, ev Event) {
	select {
	case l.events <- ev:
	case <-ctx.Done():
	}
}
