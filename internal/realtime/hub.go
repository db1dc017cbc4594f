package realtime

import (
	"encoding/json"
	"sync"
)

const (
	TopicCommunity = "community"
	TopicMarket    = "market"
)

// DefaultTopics are subscribed when a client does not ask for any.
var DefaultTopics = []string{TopicCommunity, TopicMarket}

type Hub struct {
	mu       sync.RWMutex
	clients  map[string]map[*Client]struct{}
	presence map[int64]int
}

type Client struct {
	UserID int64
	Topics []string
	Send   chan []byte

	closeOnce sync.Once
}

func NewClient(userID int64, topics []string) *Client {
	if len(topics) == 0 {
		topics = DefaultTopics
	}
	return &Client{UserID: userID, Topics: topics, Send: make(chan []byte, 16)}
}

func NewHub() *Hub {
	return &Hub{
		clients:  map[string]map[*Client]struct{}{},
		presence: map[int64]int{},
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, topic := range client.Topics {
		if h.clients[topic] == nil {
			h.clients[topic] = map[*Client]struct{}{}
		}
		h.clients[topic][client] = struct{}{}
	}
	if client.UserID != 0 {
		h.presence[client.UserID]++
		h.broadcastPresenceLocked()
	}
}

// Unregister removes the client from every topic and closes its send channel.
// It is safe to call more than once.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	registered := false
	for _, topic := range client.Topics {
		clients, ok := h.clients[topic]
		if !ok {
			continue
		}
		if _, ok := clients[client]; ok {
			registered = true
			delete(clients, client)
		}
		if len(clients) == 0 {
			delete(h.clients, topic)
		}
	}
	if registered && client.UserID != 0 {
		if count := h.presence[client.UserID]; count <= 1 {
			delete(h.presence, client.UserID)
		} else {
			h.presence[client.UserID] = count - 1
		}
		h.broadcastPresenceLocked()
	}
	client.closeOnce.Do(func() { close(client.Send) })
}

// Broadcast sends payload to every subscriber of topic. Slow clients drop
// messages instead of blocking the sender.
func (h *Hub) Broadcast(topic string, payload any) {
	message, err := json.Marshal(payload)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[topic] {
		select {
		case client.Send <- message:
		default:
		}
	}
}

// Online returns the number of distinct signed-in users connected.
func (h *Hub) Online() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.presence)
}

func (h *Hub) broadcastPresenceLocked() {
	users := make([]int64, 0, len(h.presence))
	for userID := range h.presence {
		users = append(users, userID)
	}
	message, err := json.Marshal(map[string]any{
		"type":  "presence.update",
		"users": users,
	})
	if err != nil {
		return
	}
	for client := range h.clients[TopicCommunity] {
		select {
		case client.Send <- message:
		default:
		}
	}
}
