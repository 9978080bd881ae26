package controllers

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/denxi342/discord-bot-dashboard/middleware"
	"github.com/denxi342/discord-bot-dashboard/pkg/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS handled at HTTP level; allow WS here
		return true
	},
}

// DMSocket handles GET /ws?token=JWT. The socket is a pure subscription: it
// is attached to the hub under the caller's user id and receives every
// new_dm_message event addressed to that user, across all conversations.
func DMSocket(hub *realtime.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Authenticate via ?token=JWT; browsers cannot set headers on WS
		tokenStr := strings.TrimSpace(c.Query("token"))
		if tokenStr == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "missing token query"})
			return
		}
		userIDStr, _, err := middleware.ParseToken(tokenStr)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": err.Error()})
			return
		}
		uid64, err := strconv.ParseUint(userIDStr, 10, 64)
		if err != nil || uid64 == 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "invalid subject in token"})
			return
		}
		uid := uint(uid64)

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[ws] upgrade error: %v", err)
			return
		}

		conn := realtime.NewConnection(uid, ws)
		sessionID := hub.Attach(uid, conn)
		conn.Start()

		// block on reads; the socket only carries keepalive traffic inbound
		if err := conn.ReadLoop(); err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			log.Printf("[ws] user %d read loop ended: %v", uid, err)
		}

		hub.Detach(uid, sessionID)
		conn.Close(websocket.CloseNormalClosure, "bye")
	}
}
