package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"roomchat/internal/domain"
	"roomchat/internal/observability"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second // Must be less than pongWait
	maxMessageSize = 4096

	appendTimeout = 5 * time.Second
)

var validate = validator.New()

// MessageAppender persists one message to one room and returns it for
// broadcast.
type MessageAppender interface {
	AppendMessage(ctx context.Context, roomID, sender, content string) (*domain.Message, error)
}

// MessagePublisher hands a persisted message to the broadcast bus.
type MessagePublisher interface {
	PublishMessage(ctx context.Context, roomID string, msg *domain.Message) error
}

// MessageRequest is the inbound send-message payload. The room id comes
// from the connection's topic, not the frame.
type MessageRequest struct {
	Sender  string `json:"sender" validate:"required"`
	Content string `json:"content"`
}

// ErrorMessage is sent back to the client when a send is rejected
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Client is one subscriber connection bound to a single room topic.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	roomID     string
	chat       MessageAppender
	publisher  MessagePublisher
	writeMu    sync.Mutex
	closed     atomic.Bool
	sendClosed atomic.Bool
	ctx        context.Context
	ctxCancel  context.CancelFunc
}

func NewClient(ctx context.Context, hub *Hub, conn *websocket.Conn, roomID string,
	chat MessageAppender, publisher MessagePublisher) *Client {
	clientCtx, cancel := context.WithCancel(ctx)

	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, 256),
		roomID:    roomID,
		chat:      chat,
		publisher: publisher,
		ctx:       clientCtx,
		ctxCancel: cancel,
	}
}

// ReadPump reads send-message frames from the connection, appends them via
// the chat service and, on success, hands the persisted message to the
// broadcast bus. Delivery back to subscribers happens through the hub, fed
// by the bus consumer, so every subscriber (including the sender) sees the
// same stream.
func (c *Client) ReadPump() {
	defer func() {
		c.ctxCancel()
		c.hub.Unregister(c)
		c.closeConnection()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		slog.Warn("failed to set read deadline",
			slog.String("error", err.Error()),
			slog.String("room_id", c.roomID))
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket error",
					slog.String("error", err.Error()),
					slog.String("room_id", c.roomID))
			}
			break
		}

		var req MessageRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			slog.Warn("invalid message format",
				slog.String("error", err.Error()),
				slog.String("room_id", c.roomID))
			c.sendError("invalid message format")
			continue
		}

		if err := validate.Struct(&req); err != nil {
			c.sendError("sender is required")
			continue
		}

		ctx, cancel := context.WithTimeout(c.ctx, appendTimeout)
		msg, err := c.chat.AppendMessage(ctx, c.roomID, req.Sender, req.Content)
		cancel()
		if err != nil {
			slog.Error("error appending message",
				slog.String("error", err.Error()),
				slog.String("room_id", c.roomID),
				slog.String("sender", req.Sender))

			switch {
			case errors.Is(err, domain.ErrRoomNotFound):
				c.sendError("room not found")
			default:
				c.sendError("failed to send message")
			}
			continue
		}
		observability.MessagesAppended.WithLabelValues(c.roomID).Inc()

		// The append is durable; a publish failure must not undo it.
		ctx, cancel = context.WithTimeout(c.ctx, appendTimeout)
		err = c.publisher.PublishMessage(ctx, c.roomID, msg)
		cancel()
		if err != nil {
			observability.BroadcastPublishFailures.Inc()
			slog.Error("persisted message not handed to broadcast bus",
				slog.String("error", err.Error()),
				slog.String("room_id", c.roomID))
		}
	}
}

// sendError queues an error frame for this client only
func (c *Client) sendError(reason string) {
	data, err := json.Marshal(ErrorMessage{Type: "error", Message: reason})
	if err != nil {
		slog.Error("failed to marshal error message",
			slog.String("error", err.Error()))
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// Hub closed the channel
				_ = c.writeMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.writeMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.writeMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// writeMessage writes a message to the WebSocket connection in a thread-safe manner
func (c *Client) writeMessage(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.closed.Load() {
		return websocket.ErrCloseSent
	}

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		slog.Warn("failed to set write deadline",
			slog.String("error", err.Error()),
			slog.String("room_id", c.roomID))
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

// closeConnection safely closes the WebSocket connection
func (c *Client) closeConnection() {
	if c.closed.CompareAndSwap(false, true) {
		c.writeMu.Lock()
		c.conn.Close()
		c.writeMu.Unlock()
	}
}
