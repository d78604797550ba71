package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/playgrid/backend/internal/game"
	"github.com/redis/go-redis/v9"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// HandleMatchEvents upgrades the connection and forwards lifecycle
// events for one match from the Redis channel the game layer publishes
// on. The payload format is minimal JSON and carries no money state;
// clients re-fetch the snapshot on any event they care about.
func HandleMatchEvents(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		matchID, err := strconv.Atoi(c.Param("id"))
		if err != nil || matchID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid match id"})
			return
		}
		if rdb == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event feed unavailable"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] Upgrade failed for match %d: %v", matchID, err)
			return
		}
		defer conn.Close()

		ctx := c.Request.Context()
		pubsub := rdb.Subscribe(ctx, game.EventsChannel)
		defer pubsub.Close()

		// Drain reads so we notice the peer going away.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					pubsub.Close()
					return
				}
			}
		}()

		log.Printf("[WS] Client subscribed to match %d events", matchID)
		ch := pubsub.Channel()
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var payload map[string]interface{}
				if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
					log.Printf("[WS] Invalid event payload: %v", err)
					continue
				}
				id, _ := payload["match_id"].(float64)
				if int(id) != matchID {
					continue
				}
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}
}
