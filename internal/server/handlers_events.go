package server

import (
	"net/http"
	"time"

	"github.com/claude/betalog/internal/models"
	"github.com/claude/betalog/internal/runner"
	"github.com/claude/betalog/internal/timer"
	"github.com/gorilla/websocket"
)

const (
	eventBuffer = 32
	writeWait   = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	// Browser clients on the tailnet are served from other origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// eventMessage is one runner event as sent over the websocket.
type eventMessage struct {
	Type    runner.EventType `json:"type"`
	State   timerResponse    `json:"state"`
	Session *models.Session  `json:"session,omitempty"`
	Error   string           `json:"error,omitempty"`
	At      time.Time        `json:"at"`
}

func (s *Server) timerState(snap timer.Snapshot) timerResponse {
	return timerResponse{
		Snapshot:        snap,
		Clock:           timer.FormatClock(snap.SecondsRemaining),
		TotalSeconds:    snap.Config.TotalSeconds(),
		PendingSessions: len(s.timer.Pending()),
	}
}

// handleTimerEvents streams runner events to a websocket client until either
// side closes. The current state is sent first.
func (s *Server) handleTimerEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events := s.timer.Subscribe(eventBuffer)
	defer s.timer.Unsubscribe(events)

	// Reads only detect the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(msg eventMessage) bool {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			s.log.Debug("websocket write failed", "error", err)
			return false
		}
		return true
	}

	if !send(eventMessage{Type: runner.EventPhaseChange, State: s.timerState(s.timer.Snapshot()), At: time.Now()}) {
		return
	}
	for {
		select {
		case <-gone:
			return
		case ev, ok := <-events:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "timer closed"),
					time.Now().Add(writeWait))
				return
			}
			msg := eventMessage{Type: ev.Type, State: s.timerState(ev.State), Session: ev.Session, At: ev.At}
			if ev.Err != nil {
				msg.Error = ev.Err.Error()
			}
			if !send(msg) {
				return
			}
		}
	}
}
