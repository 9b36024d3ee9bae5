package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"roomchat/internal/domain"
	"roomchat/internal/middleware"
	ws "roomchat/internal/websocket"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// WebSocketHandler upgrades subscriber connections and binds each one to a
// single room topic.
type WebSocketHandler struct {
	hub       *ws.Hub
	rooms     RoomService
	chat      ws.MessageAppender
	publisher ws.MessagePublisher
	upgrader  websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocket handler. allowedOrigins is the
// comma-separated origin allowlist; "*" disables the origin check.
func NewWebSocketHandler(hub *ws.Hub, rooms RoomService, chat ws.MessageAppender,
	publisher ws.MessagePublisher, allowedOrigins string) *WebSocketHandler {

	origins := middleware.ParseOrigins(allowedOrigins)
	return &WebSocketHandler{
		hub:       hub,
		rooms:     rooms,
		chat:      chat,
		publisher: publisher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, o := range origins {
					if o == "*" || o == origin {
						return true
					}
				}
				return false
			},
		},
	}
}

// HandleConnection handles WebSocket upgrade and connection
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	if roomID == "" {
		http.Error(w, `{"error":"room id required"}`, http.StatusBadRequest)
		return
	}

	// Joining a nonexistent room is rejected, never an implicit create.
	if _, err := h.rooms.GetRoom(r.Context(), roomID); err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			http.Error(w, `{"error":"room not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"failed to retrieve room"}`, http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("room_id", roomID))
		return
	}

	// The connection outlives the upgrade request.
	client := ws.NewClient(context.Background(), h.hub, conn, roomID, h.chat, h.publisher)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
