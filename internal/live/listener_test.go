package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newPushServer upgrades incoming connections and writes each frame from
// frames, then holds the connection open until the client goes away.
func newPushServer(t *testing.T, frames []string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for _, frame := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws://" + strings.TrimPrefix(srv.URL, "http://")
}

func receiveEvent(t *testing.T, l *Listener) Event {
	t.Helper()
	select {
	case ev := <-l.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestListenerForwardsBoardSnapshot(t *testing.T) {
	srv := newPushServer(t, []string{
		`{"type": "board_changed", "board": {"todo": [{"id": "c1", "title": "Hello"}], "in_progress": [], "done": []}}`,
	})
	l := New(wsURL(srv))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := l.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ev := receiveEvent(t, l)
	if ev.Type != EventBoardChanged {
		t.Fatalf("event type = %q", ev.Type)
	}
	if ev.Board == nil || len(ev.Board.Todo) != 1 || ev.Board.Todo[0].ID != "c1" {
		t.Fatalf("unexpected board payload %+v", ev.Board)
	}
}

func TestListenerTagsChangedCarriesNoPayload(t *testing.T) {
	srv := newPushServer(t, []string{`{"type": "tags_changed"}`})
	l := New(wsURL(srv))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := l.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ev := receiveEvent(t, l)
	if ev.Type != EventTagsChanged {
		t.Fatalf("event type = %q", ev.Type)
	}
	if ev.Board != nil {
		t.Fatalf("expected nil board, got %+v", ev.Board)
	}
}

func TestListenerSkipsMalformedAndUnknownMessages(t *testing.T) {
	srv := newPushServer(t, []string{
		`not json`,
		`{"type": "mystery"}`,
		`{"type": "tags_changed"}`,
	})
	l := New(wsURL(srv))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := l.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ev := receiveEvent(t, l)
	if ev.Type != EventTagsChanged {
		t.Fatalf("expected tags_changed after skipped frames, got %q", ev.Type)
	}
}

func TestListenerEmitsTerminalErrorAndClosesChannel(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	t.Cleanup(srv.Close)

	l := New(wsURL(srv))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := l.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ev := receiveEvent(t, l)
	if ev.Err == nil {
		t.Fatalf("expected terminal error event, got %+v", ev)
	}
	select {
	case _, ok := <-l.Events():
		if ok {
			t.Fatal("expected channel to be closed after terminal event")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after terminal event")
	}
}

func TestListenerStartTwiceFails(t *testing.T) {
	srv := newPushServer(t, nil)
	l := New(wsURL(srv))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := l.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := l.Start(ctx); err != ErrAlreadyStarted {
		t.Fatalf("second Start = %v, want ErrAlreadyStarted", err)
	}
}

func TestListenerDialFailureClosesChannel(t *testing.T) {
	srv := newPushServer(t, nil)
	addr := wsURL(srv)
	srv.Close()

	l := New(addr)
	if err := l.Start(context.Background()); err == nil {
		t.Fatal("expected dial error")
	}
	if _, ok := <-l.Events(); ok {
		t.Fatal("expected closed channel after dial failure")
	}
}
