package supabase_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"taskmaster/internal/apperr"
	"taskmaster/internal/backend/supabase"
	"taskmaster/internal/config"
	"taskmaster/internal/testutil"
)

type wsFrame struct {
	Topic   string         `json:"topic"`
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload"`
	Ref     string         `json:"ref,omitempty"`
}

// newRealtimeServer upgrades the change-feed socket, records the join
// frame, and relays frames from the send channel to the client.
func newRealtimeServer(t *testing.T) (*supabase.Store, chan wsFrame, chan wsFrame) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	joins := make(chan wsFrame, 1)
	send := make(chan wsFrame, 8)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/realtime/v1/websocket" {
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.URL.Query().Get("apikey") != "anon" {
			t.Error("socket dialed without apikey")
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		var join wsFrame
		if err := conn.ReadJSON(&join); err != nil {
			return
		}
		joins <- join

		// Reads continue in the background so leave frames and pings
		// drain instead of stalling the client.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for frame := range send {
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(send) })

	sessions := testutil.NewFakeSessionProvider(nil)
	st := supabase.NewStore(config.Project{URL: srv.URL, APIKey: "anon"}, sessions)
	return st, joins, send
}

func waitChange(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("no change signal")
	}
}

func TestSubscribeJoinsOwnerTopic(t *testing.T) {
	st, joins, _ := newRealtimeServer(t)

	sub, err := st.Subscribe(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	select {
	case join := <-joins:
		if join.Event != "phx_join" {
			t.Errorf("event = %q, want phx_join", join.Event)
		}
		if join.Topic != "realtime:public:tasks:user_id=eq.user-1" {
			t.Errorf("topic = %q", join.Topic)
		}
		if join.Ref == "" {
			t.Error("join frame missing ref")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no join frame")
	}
}

func TestSubscribeRejectsEmptyOwner(t *testing.T) {
	st, _, _ := newRealtimeServer(t)
	_, err := st.Subscribe(context.Background(), "")
	if !apperr.IsAuth(err) {
		t.Fatalf("want auth error, got %v", err)
	}
}

func TestRowEventsSignal(t *testing.T) {
	st, joins, send := newRealtimeServer(t)

	sub, err := st.Subscribe(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()
	join := <-joins

	send <- wsFrame{Topic: join.Topic, Event: "INSERT", Payload: map[string]any{"record": map[string]any{"id": "t1"}}}
	waitChange(t, sub.Changes())

	send <- wsFrame{Topic: join.Topic, Event: "DELETE", Payload: map[string]any{}}
	waitChange(t, sub.Changes())
}

func TestForeignTopicIgnored(t *testing.T) {
	st, joins, send := newRealtimeServer(t)

	sub, err := st.Subscribe(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()
	join := <-joins

	send <- wsFrame{Topic: "realtime:public:tasks:user_id=eq.other", Event: "INSERT", Payload: map[string]any{}}
	send <- wsFrame{Topic: "phoenix", Event: "phx_reply", Payload: map[string]any{}}
	// A matching event after the noise proves the loop is still alive
	// and the foreign frames produced nothing.
	send <- wsFrame{Topic: join.Topic, Event: "UPDATE", Payload: map[string]any{}}

	waitChange(t, sub.Changes())
	select {
	case <-sub.Changes():
		t.Error("foreign topic produced a signal")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	st, joins, _ := newRealtimeServer(t)

	sub, err := st.Subscribe(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	<-joins

	if err := sub.Close(); err != nil {
		t.Errorf("first close: %v", err)
	}
	if err := sub.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}

func TestContextCancelClosesSubscription(t *testing.T) {
	st, joins, send := newRealtimeServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := st.Subscribe(ctx, "user-1")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	join := <-joins

	cancel()
	// Let the teardown land, then drain anything that was already
	// buffered before it.
	time.Sleep(100 * time.Millisecond)
	select {
	case <-sub.Changes():
	default:
	}

	send <- wsFrame{Topic: join.Topic, Event: "INSERT", Payload: map[string]any{}}
	select {
	case <-sub.Changes():
		t.Error("subscription still delivering after context cancel")
	case <-time.After(200 * time.Millisecond):
	}
}
