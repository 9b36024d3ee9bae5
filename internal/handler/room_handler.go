package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"roomchat/internal/domain"
	"roomchat/internal/observability"
	"roomchat/internal/service"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// storageTimeout bounds every storage-touching service call; expiry
// surfaces as domain.ErrStorageUnavailable.
const storageTimeout = 5 * time.Second

// RoomService is the room lifecycle surface the handler depends on
type RoomService interface {
	CreateRoom(ctx context.Context, roomID string) (*domain.Room, error)
	GetRoom(ctx context.Context, roomID string) (*domain.Room, error)
}

// HistoryService pages over a room's message history
type HistoryService interface {
	GetPage(ctx context.Context, roomID string, page, size int) ([]domain.Message, error)
}

// RoomHandler handles room endpoints
type RoomHandler struct {
	rooms   RoomService
	history HistoryService
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(rooms RoomService, history HistoryService) *RoomHandler {
	return &RoomHandler{
		rooms:   rooms,
		history: history,
	}
}

// CreateRoomRequest represents a room creation request
type CreateRoomRequest struct {
	RoomID string `json:"room_id" validate:"required,max=100"`
}

// Create creates a new room with a caller-chosen id
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}
	if err := validate.Struct(&req); err != nil {
		http.Error(w, `{"error":"room_id is required"}`, http.StatusBadRequest)
		return
	}

	ctx, cancel := requestContext(r, req.RoomID)
	defer cancel()
	room, err := h.rooms.CreateRoom(ctx, req.RoomID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomExists):
			http.Error(w, `{"error":"room already exists"}`, http.StatusConflict)
		case errors.Is(err, domain.ErrStorageUnavailable):
			observability.FromContext(ctx).Error("room storage unavailable", slog.String("error", err.Error()))
			http.Error(w, `{"error":"storage unavailable"}`, http.StatusServiceUnavailable)
		default:
			observability.FromContext(ctx).Error("failed to create room", slog.String("error", err.Error()))
			http.Error(w, `{"error":"failed to create room"}`, http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(room)
}

// Get returns a room with its full message sequence (the join operation)
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	if roomID == "" {
		http.Error(w, `{"error":"room id required"}`, http.StatusBadRequest)
		return
	}

	ctx, cancel := requestContext(r, roomID)
	defer cancel()
	room, err := h.rooms.GetRoom(ctx, roomID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			http.Error(w, `{"error":"room not found"}`, http.StatusNotFound)
		case errors.Is(err, domain.ErrStorageUnavailable):
			http.Error(w, `{"error":"storage unavailable"}`, http.StatusServiceUnavailable)
		default:
			observability.FromContext(ctx).Error("failed to retrieve room", slog.String("error", err.Error()))
			http.Error(w, `{"error":"failed to retrieve room"}`, http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(room)
}

// GetMessages returns one page of a room's history, newest page first
func (h *RoomHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	if roomID == "" {
		http.Error(w, `{"error":"room id required"}`, http.StatusBadRequest)
		return
	}

	page, ok := queryInt(r, "page", service.DefaultPage)
	if !ok {
		http.Error(w, `{"error":"page must be an integer"}`, http.StatusBadRequest)
		return
	}
	size, ok := queryInt(r, "size", service.DefaultSize)
	if !ok {
		http.Error(w, `{"error":"size must be an integer"}`, http.StatusBadRequest)
		return
	}

	ctx, cancel := requestContext(r, roomID)
	defer cancel()
	messages, err := h.history.GetPage(ctx, roomID, page, size)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidPage):
			http.Error(w, `{"error":"page must be >= 0 and size must be > 0"}`, http.StatusBadRequest)
		case errors.Is(err, domain.ErrRoomNotFound):
			http.Error(w, `{"error":"room not found"}`, http.StatusNotFound)
		case errors.Is(err, domain.ErrStorageUnavailable):
			http.Error(w, `{"error":"storage unavailable"}`, http.StatusServiceUnavailable)
		default:
			observability.FromContext(ctx).Error("failed to retrieve messages", slog.String("error", err.Error()))
			http.Error(w, `{"error":"failed to retrieve messages"}`, http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"messages": messages,
	})
}

// requestContext carries the room id and chi request id into service calls
// so storage errors log with both attached, and bounds the call with the
// storage deadline.
func requestContext(r *http.Request, roomID string) (context.Context, context.CancelFunc) {
	ctx := observability.WithRoomID(r.Context(), roomID)
	if reqID := chimiddleware.GetReqID(r.Context()); reqID != "" {
		ctx = observability.WithRequestID(ctx, reqID)
	}
	return context.WithTimeout(ctx, storageTimeout)
}

// queryInt parses an optional integer query parameter
func queryInt(r *http.Request, name string, fallback int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return value, true
}
