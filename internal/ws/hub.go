package ws

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/Swastik007sharma/Lost-And-Found-sub001/internal/models"
	"github.com/Swastik007sharma/Lost-And-Found-sub001/internal/observability"
)

// Hub maintains the live channel membership tables: one personal channel per
// user (all of their devices) and one channel per conversation. Channels are
// created on first subscribe and vanish when their last connection leaves.
type Hub struct {
	personal      map[string]map[*Client]bool
	conversations map[string]map[*Client]bool
	mu            sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		personal:      make(map[string]map[*Client]bool),
		conversations: make(map[string]map[*Client]bool),
	}
}

// AddPersonal subscribes a client to its personal channel. A client without a
// bound user id is accepted but reaches no personal channel.
func (h *Hub) AddPersonal(userID string, client *Client) {
	if userID == "" || client == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.personal[userID]; !ok {
		h.personal[userID] = make(map[*Client]bool)
	}
	h.personal[userID][client] = true
}

// JoinConversation subscribes a client to a conversation channel. Subscribing
// twice is the same as subscribing once.
func (h *Hub) JoinConversation(conversationID string, client *Client) {
	if conversationID == "" || client == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conversations[conversationID]; !ok {
		h.conversations[conversationID] = make(map[*Client]bool)
	}
	h.conversations[conversationID][client] = true
	client.subs[conversationID] = true
}

// LeaveConversation unsubscribes a client from a conversation channel.
func (h *Hub) LeaveConversation(conversationID string, client *Client) {
	if conversationID == "" || client == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromConversation(conversationID, client)
}

// RemoveClient drops the client from its personal channel and every
// conversation it joined. Called on disconnect.
func (h *Hub) RemoveClient(client *Client) {
	if client == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.personal[client.Info.UserID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.personal, client.Info.UserID)
		}
	}
	for conversationID := range client.subs {
		h.removeFromConversation(conversationID, client)
	}
}

func (h *Hub) removeFromConversation(conversationID string, client *Client) {
	if clients, ok := h.conversations[conversationID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.conversations, conversationID)
		}
	}
	delete(client.subs, conversationID)
}

// BroadcastToConversation sends the event to every client in the conversation.
func (h *Hub) BroadcastToConversation(conversationID string, event models.ServerEvent) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.conversations[conversationID]))
	for client := range h.conversations[conversationID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		h.deliver(client, event)
	}
}

// SendToUser sends the event to all of a user's connections.
func (h *Hub) SendToUser(userID string, event models.ServerEvent) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.personal[userID]))
	for client := range h.personal[userID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		h.deliver(client, event)
	}
}

func (h *Hub) deliver(client *Client, event models.ServerEvent) {
	if err := client.Send(event); err != nil {
		log.Printf("websocket write error: %v", err)
		client.Close()
		h.RemoveClient(client)
		h.publishWSError(client, err)
	}
}

func (h *Hub) publishWSError(client *Client, err error) {
	info := client.Info
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        "socket",
			"event":       "ws_error",
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      err.Error(),
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"verified":  info.Verified,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), "ws_events.socket", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   payload,
	}, headers)
	observability.IncWSEvent("socket", "ws_error")
}
