package supabase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"taskmaster/internal/apperr"
	"taskmaster/internal/store"
)

const (
	realtimePath = "/realtime/v1/websocket"

	// heartbeatInterval keeps the change-feed socket alive.
	heartbeatInterval = 25 * time.Second

	writeTimeout = 5 * time.Second
)

// realtimeMessage is a change-feed frame. The payload content is never
// trusted as a delta: any row event on the subscribed topic means
// "re-check current state".
type realtimeMessage struct {
	Topic   string         `json:"topic"`
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload"`
	Ref     string         `json:"ref,omitempty"`
}

// Subscribe implements store.Store. The topic is built from the ownerID
// the caller already resolved; an empty owner is rejected rather than
// turned into an unscoped subscription.
func (s *Store) Subscribe(ctx context.Context, ownerID string) (store.Subscription, error) {
	const op = "subscribe"
	if ownerID == "" {
		return nil, apperr.New(apperr.Auth, op, "no owner")
	}

	wsURL := strings.Replace(s.project.URL, "http", "ws", 1) +
		realtimePath + "?vsn=1.0.0&apikey=" + s.project.APIKey

	dialCtx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, wsURL, nil)
	if err != nil {
		return nil, wrapError(op, err)
	}
	if resp != nil {
		resp.Body.Close()
	}

	sub := &subscription{
		conn:    conn,
		topic:   "realtime:public:tasks:user_id=eq." + ownerID,
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	if err := sub.writeJSON(realtimeMessage{
		Topic:   sub.topic,
		Event:   "phx_join",
		Payload: map[string]any{},
		Ref:     uuid.NewString(),
	}); err != nil {
		conn.Close()
		return nil, wrapError(op, err)
	}

	go sub.readLoop()
	go sub.heartbeatLoop()
	go func() {
		// The subscription dies with its context even if the owner forgets
		// to close it.
		select {
		case <-ctx.Done():
			_ = sub.Close()
		case <-sub.done:
		}
	}()

	slog.Debug("change feed subscribed", "topic", sub.topic)
	return sub, nil
}

// subscription is one open change feed. Exactly one per signed-in
// session; the view-model owns it and closes it on teardown.
type subscription struct {
	conn  *websocket.Conn
	topic string

	changes chan struct{}
	done    chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// Changes implements store.Subscription.
func (s *subscription) Changes() <-chan struct{} {
	return s.changes
}

// Close implements store.Subscription. Safe to call multiple times; the
// socket is torn down exactly once.
func (s *subscription) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.writeJSON(realtimeMessage{
			Topic:   s.topic,
			Event:   "phx_leave",
			Payload: map[string]any{},
			Ref:     uuid.NewString(),
		})
		deadline := time.Now().Add(writeTimeout)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = s.conn.Close()
		slog.Debug("change feed closed", "topic", s.topic)
	})
	return nil
}

func (s *subscription) readLoop() {
	for {
		var msg realtimeMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			select {
			case <-s.done:
			default:
				slog.Warn("change feed read failed", "topic", s.topic, "error", err)
				_ = s.Close()
			}
			return
		}
		if msg.Topic != s.topic {
			continue
		}
		switch msg.Event {
		case "INSERT", "UPDATE", "DELETE", "postgres_changes":
			s.signal()
		}
	}
}

// signal coalesces: a signal already pending absorbs this one, which is
// fine because events are recheck hints, not deltas.
func (s *subscription) signal() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

func (s *subscription) heartbeatLoop() {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			err := s.writeJSON(realtimeMessage{
				Topic:   "phoenix",
				Event:   "heartbeat",
				Payload: map[string]any{},
				Ref:     uuid.NewString(),
			})
			if err != nil {
				slog.Warn("change feed heartbeat failed", "error", err)
				_ = s.Close()
				return
			}
		}
	}
}

func (s *subscription) writeJSON(msg realtimeMessage) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("setting write deadline: %w", err)
	}
	return s.conn.WriteJSON(msg)
}
