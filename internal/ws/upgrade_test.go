package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"coinmeet/config"
	"coinmeet/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newEventsServer(t *testing.T) (*httptest.Server, *Hub, *config.JWTConfig) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.JWTConfig{AccessSecret: "ws-test-secret", AccessExpiry: time.Hour, Issuer: "coinmeet"}
	hub := NewHub()
	r := gin.New()
	r.GET("/ws/events", UpgradeEventsWS(cfg, hub, zap.NewNop()))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub, cfg
}

func TestUpgradeRejectsMissingOrBadToken(t *testing.T) {
	srv, _, _ := newEventsServer(t)

	for _, q := range []string{"", "?token=garbage"} {
		resp, err := http.Get(srv.URL + "/ws/events" + q)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, q)
	}
}

func TestUpgradeStreamsUserEvents(t *testing.T) {
	srv, hub, cfg := newEventsServer(t)
	token, err := auth.GenerateAccessToken(cfg, 42, "female")
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/events?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() Event {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		var ev Event
		require.NoError(t, json.Unmarshal(msg, &ev))
		return ev
	}

	hello := read()
	assert.Equal(t, EventConnected, hello.Type)
	assert.True(t, hub.IsOnline(42))

	hub.SendToUser(42, Event{Type: "gift.received", Data: map[string]string{"gift": "Rose"}})
	ev := read()
	assert.Equal(t, "gift.received", ev.Type)
	assert.Equal(t, map[string]interface{}{"gift": "Rose"}, ev.Data)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return !hub.IsOnline(42) }, 2*time.Second, 10*time.Millisecond)
}

func TestBearer(t *testing.T) {
	assert.Equal(t, "abc", bearer("Bearer abc"))
	assert.Empty(t, bearer("Bearer "))
	assert.Empty(t, bearer("Basic abc"))
}
