package ws

import (
	"net/http"
	"time"

	"coinmeet/config"
	"coinmeet/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = pongWait * 9 / 10
	// Clients only answer pings; anything bigger is not ours.
	maxInboundFrame = 512
)

const EventConnected = "connected"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// UpgradeEventsWS serves GET /ws/events?token=<jwt>. The token is checked
// before the upgrade so a bad one gets a plain 401.
func UpgradeEventsWS(cfg *config.JWTConfig, hub *Hub, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			token = bearer(c.GetHeader("Authorization"))
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "token required"})
			return
		}
		claims, err := auth.ParseAccessToken(cfg, token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid or expired token"})
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Debug("ws upgrade", zap.Uint("user_id", claims.UserID), zap.Error(err))
			return
		}

		client := NewClient(claims.UserID, claims.UserType)
		hub.Register(client)
		log.Debug("ws connected", zap.Uint("user_id", client.UserID), zap.String("user_type", client.UserType))
		hub.SendToUser(client.UserID, Event{Type: EventConnected, Data: gin.H{"user_id": client.UserID, "user_type": client.UserType}})

		done := make(chan struct{})
		go func() {
			defer close(done)
			writePump(client, conn)
		}()
		readPump(conn)
		client.Close()
		<-done
		conn.Close()
		log.Debug("ws disconnected", zap.Uint("user_id", client.UserID))
	}
}

func bearer(h string) string {
	const prefix = "Bearer "
	if len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return ""
}

// writePump drains client.Send to the socket and keeps it alive with pings.
// It returns once Send is closed or a write fails.
func writePump(c *Client, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case frame, ok := <-c.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				conn.Close()
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				conn.Close()
				return
			}
		}
	}
}

// readPump discards inbound frames until the peer goes away or stops
// answering pings.
func readPump(conn *websocket.Conn) {
	conn.SetReadLimit(maxInboundFrame)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
