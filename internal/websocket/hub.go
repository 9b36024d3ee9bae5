package websocket

import (
	"context"
	"log/slog"

	"roomchat/internal/observability"
)

// BroadcastMessage represents a message to be delivered to one room's
// subscribers
type BroadcastMessage struct {
	RoomID  string
	Message []byte
}

// Hub maintains active subscribers per room and delivers broadcasts to
// them. One room id maps to exactly one broadcast topic.
type Hub struct {
	// Registered subscribers by room
	clients map[string]map[*Client]bool

	// Broadcast channel
	broadcast chan *BroadcastMessage

	// Register client
	register chan *Client

	// Unregister client
	unregister chan *Client

	// Shutdown signal
	done chan struct{}
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan *BroadcastMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) error {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			slog.Info("hub shutting down gracefully")
			return ctx.Err()

		case client := <-h.register:
			if h.clients[client.roomID] == nil {
				h.clients[client.roomID] = make(map[*Client]bool)
			}
			h.clients[client.roomID][client] = true
			observability.WebSocketConnectionsActive.WithLabelValues(client.roomID).Inc()
			slog.Info("subscriber registered",
				slog.String("room_id", client.roomID))

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			// Send to every subscriber of the room's topic
			if clients, ok := h.clients[message.RoomID]; ok {
				for client := range clients {
					select {
					case client.send <- message.Message:
						observability.WebSocketMessagesSent.WithLabelValues(message.RoomID, "broadcast").Inc()
					default:
						// Subscriber's send buffer is full, close connection
						h.closeClientSend(client)
						delete(clients, client)
					}
				}
			}
		}
	}
}

// unregisterClient safely removes a subscriber from the hub
func (h *Hub) unregisterClient(client *Client) {
	if clients, ok := h.clients[client.roomID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			h.closeClientSend(client)
			observability.WebSocketConnectionsActive.WithLabelValues(client.roomID).Dec()
			slog.Info("subscriber unregistered",
				slog.String("room_id", client.roomID))

			// Clean up empty room topic
			if len(clients) == 0 {
				delete(h.clients, client.roomID)
			}
		}
	}
}

// closeClientSend closes a client's send channel exactly once without
// draining queued frames.
func (h *Hub) closeClientSend(client *Client) {
	if client.sendClosed.CompareAndSwap(false, true) {
		close(client.send)
	}
}

// shutdown performs graceful cleanup of all connections
func (h *Hub) shutdown() {
	close(h.done)

	for roomID, clients := range h.clients {
		for client := range clients {
			h.closeClientSend(client)
			slog.Info("closed subscriber connection",
				slog.String("room_id", roomID))
		}
	}

	slog.Info("hub shutdown complete")
}

// Broadcast delivers a message to every subscriber of the room's topic
func (h *Hub) Broadcast(roomID string, message []byte) {
	h.broadcast <- &BroadcastMessage{
		RoomID:  roomID,
		Message: message,
	}
}

// Register registers a subscriber with the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a subscriber from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}
