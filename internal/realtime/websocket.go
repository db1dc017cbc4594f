package realtime

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// NewUpgrader accepts websocket handshakes from allowedOrigin. An empty origin
// allows any.
func NewUpgrader(allowedOrigin string) *websocket.Upgrader {
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return allowedOrigin == "" || origin == "" || strings.EqualFold(origin, allowedOrigin)
		},
	}
}

// ParseTopics reads a comma separated topic list, keeping only known topics.
func ParseTopics(raw string) []string {
	var topics []string
	for _, part := range strings.Split(raw, ",") {
		switch topic := strings.TrimSpace(strings.ToLower(part)); topic {
		case TopicCommunity, TopicMarket:
			topics = append(topics, topic)
		}
	}
	return topics
}

func ServeWS(w http.ResponseWriter, r *http.Request, upgrader *websocket.Upgrader, hub *Hub, userID int64, topics []string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := NewClient(userID, topics)
	hub.Register(client)

	go writePump(conn, client, hub)
	readPump(conn, client, hub)
}

func readPump(conn *websocket.Conn, client *Client, hub *Hub) {
	defer func() {
		hub.Unregister(client)
		_ = conn.Close()
	}()
	conn.SetReadLimit(1024)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func writePump(conn *websocket.Conn, client *Client, hub *Hub) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		hub.Unregister(client)
		_ = conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
