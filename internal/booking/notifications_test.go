package booking

import (
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

func dialNotifications(t *testing.T, env *testEnv) *websocket.Conn {
	t.Helper()
	u, err := url.Parse(env.server.URL)
	require.NoError(t, err)

	cfg, err := websocket.NewConfig("ws://"+u.Host+"/api/notifications/ws", env.server.URL)
	require.NoError(t, err)
	var cookies []string
	for _, c := range env.client.Jar.Cookies(u) {
		cookies = append(cookies, c.Name+"="+c.Value)
	}
	cfg.Header.Set("Cookie", strings.Join(cookies, "; "))

	conn, err := websocket.DialConfig(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	return conn
}

// nextOfType skips messages until one of the wanted type arrives.
func nextOfType(t *testing.T, conn *websocket.Conn, want string) streamMessage {
	t.Helper()
	for {
		var msg streamMessage
		require.NoError(t, websocket.JSON.Receive(conn, &msg))
		if msg.Type == want {
			return msg
		}
	}
}

func TestNotificationStream(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(t, http.MethodPost, "/api/cart/plan", `{"name":"Standard"}`)
	require.Equal(t, http.StatusOK, status)

	conn := dialNotifications(t, env)

	first := nextOfType(t, conn, "posted")
	require.NotNil(t, first.Notification)
	assert.Equal(t, "Standard plan added!", first.Notification.Message)

	status, _ = env.do(t, http.MethodPost, "/api/cart/addons/extra-pages/toggle", "")
	require.Equal(t, http.StatusOK, status)

	next := nextOfType(t, conn, "posted")
	require.NotNil(t, next.Notification)
	assert.Equal(t, "Additional Pages Review added!", next.Notification.Message)
	assert.Equal(t, "info", string(next.Notification.Kind))

	require.NoError(t, websocket.JSON.Send(conn, inboundMessage{Type: "ping"}))
	nextOfType(t, conn, "pong")
}

func TestNotificationStreamEndsWithSession(t *testing.T) {
	env := newTestEnv(t)

	status, out := env.do(t, http.MethodGet, "/api/session", "")
	require.Equal(t, http.StatusOK, status)
	id, _ := out["session_id"].(string)
	require.NotEmpty(t, id)

	conn := dialNotifications(t, env)
	require.True(t, env.store.End(id))

	var msg streamMessage
	for {
		err := websocket.JSON.Receive(conn, &msg)
		if err == nil {
			continue
		}
		var netErr net.Error
		if errors.As(err, &netErr) {
			assert.False(t, netErr.Timeout(), "stream should close when the session ends")
		}
		return
	}
}
