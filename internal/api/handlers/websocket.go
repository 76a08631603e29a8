package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	ws "github.com/xaulosky/travel-suites-app/internal/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The dashboard may be served from a different origin than the API.
		return true
	},
}

// WebSocketUpgrade returns a handler that upgrades HTTP connections to WebSocket.
func WebSocketUpgrade(hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket upgrade failed")
			return
		}

		client := ws.NewClient(hub)
		hub.Register(client)

		go writePump(conn, client)
		go readPump(conn, client, hub)
	}
}

// writePump pumps messages from the hub to the WebSocket connection.
func writePump(conn *websocket.Conn, client *ws.Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send():
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Hub closed the channel
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump pumps messages from the WebSocket connection to the hub.
func readPump(conn *websocket.Conn, client *ws.Client, hub *ws.Hub) {
	defer func() {
		hub.Unregister(client)
		conn.Close()
	}()

	conn.SetReadLimit(65536)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Msg("WebSocket read error")
			}
			break
		}

		handleClientMessage(message, client, hub)
	}
}

// handleClientMessage answers application-level pings; anything else is
// rejected with an error message.
func handleClientMessage(message []byte, client *ws.Client, hub *ws.Hub) {
	var in struct {
		Type ws.MessageType `json:"type"`
	}

	var reply ws.Message
	switch err := json.Unmarshal(message, &in); {
	case err != nil:
		reply = ws.NewMessage(ws.TypeError, ws.ErrorPayload{Code: "invalid_message", Message: "message must be JSON"})
	case in.Type == ws.TypePing:
		reply = ws.NewMessage(ws.TypePong, nil)
	default:
		reply = ws.NewMessage(ws.TypeError, ws.ErrorPayload{
			Code:         "unsupported",
			Message:      "unsupported message type",
			OriginalType: string(in.Type),
		})
	}

	data, err := reply.JSON()
	if err != nil {
		return
	}
	hub.SendTo(client, data)
}
