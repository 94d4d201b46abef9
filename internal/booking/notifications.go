package booking

import (
	"net/http"

	"golang.org/x/net/websocket"

	"github.com/wolfman30/consult-booking/internal/notify"
	"github.com/wolfman30/consult-booking/internal/session"
)

type streamMessage struct {
	Type         string               `json:"type"`
	Notification *notify.Notification `json:"notification,omitempty"`
}

type inboundMessage struct {
	Type string `json:"type"`
}

// Notifications upgrades to a websocket and streams the session's
// notification board until the client leaves or the session ends.
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	st, ok := h.current(w, r)
	if !ok {
		return
	}
	websocket.Handler(func(conn *websocket.Conn) {
		h.streamNotifications(conn, st)
	}).ServeHTTP(w, r)
}

func (h *Handler) streamNotifications(conn *websocket.Conn, st *session.State) {
	events, cancel := st.Board().Subscribe()
	defer cancel()

	if n, ok := st.Board().Current(); ok {
		_ = websocket.JSON.Send(conn, streamMessage{Type: string(notify.EventPosted), Notification: &n})
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			var msg inboundMessage
			if err := websocket.JSON.Receive(conn, &msg); err != nil {
				return
			}
			if msg.Type == "ping" {
				_ = websocket.JSON.Send(conn, streamMessage{Type: "pong"})
			}
		}
	}()

	h.logger.Debug("notification stream opened", "session_id", st.ID())
	defer h.logger.Debug("notification stream closed", "session_id", st.ID())
	for {
		select {
		case <-closed:
			return
		case <-st.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := websocket.JSON.Send(conn, streamMessage{Type: string(ev.Type), Notification: ev.Notification}); err != nil {
				return
			}
		}
	}
}
