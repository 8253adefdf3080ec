package websocket

import (
	"net/http"

	"firesafety-backend/internal/middleware"
	"firesafety-backend/pkg/utils"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// NewUpgrader accepts the listed origins; "*" allows any.
func NewUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed["*"] || allowed[origin]
		},
	}
}

// HandleWebSocket upgrades an authenticated request into a change-feed
// client. Mount it behind middleware.Auth, which accepts ?token= for
// browsers that cannot set headers on upgrade.
func HandleWebSocket(hub *Hub, upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("❌ websocket upgrade failed")
			return
		}

		client := NewClient(user.TechnicianID, conn, hub)
		if !hub.join(client) {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			conn.Close()
			return
		}

		go client.WritePump()
		go client.ReadPump()
	}
}
