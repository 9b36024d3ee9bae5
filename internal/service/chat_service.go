package service

import (
	"context"
	"time"

	"roomchat/internal/domain"
)

// Default history window when the caller leaves page/size unspecified.
const (
	DefaultPage = 0
	DefaultSize = 20
)

// ChatService implements the append and history paths over a room's message
// sequence. Appends to the same room serialize on a per-room mutex so two
// concurrent senders can never lose each other's message; the service only
// returns once the updated aggregate is persisted. Broadcast is the
// caller's concern and happens after a successful return.
type ChatService struct {
	store domain.RoomStore
	locks *roomLocks
	now   func() time.Time
}

func NewChatService(store domain.RoomStore) *ChatService {
	return &ChatService{
		store: store,
		locks: newRoomLocks(),
		now:   time.Now,
	}
}

// AppendMessage adds one message to one room and makes it durable. The
// timestamp is assigned here, never by the client. Fails with
// domain.ErrRoomNotFound when the room does not exist; nothing is persisted
// in that case.
func (s *ChatService) AppendMessage(ctx context.Context, roomID, sender, content string) (*domain.Message, error) {
	lock := s.locks.get(roomID)
	lock.Lock()
	defer lock.Unlock()

	room, err := s.store.FindByRoomID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, domain.ErrRoomNotFound
	}

	msg := domain.Message{
		Sender:    sender,
		Content:   content,
		Timestamp: s.now().UTC(),
	}
	room.Messages = append(room.Messages, msg)

	if err := s.store.Save(ctx, room); err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetPage returns one window of a room's history, most recent page first:
// page 0 is the newest size messages in chronological order, page 1 the
// size messages preceding those, and so on. Pages beyond the history come
// back empty rather than failing. page < 0 or size <= 0 is rejected with
// domain.ErrInvalidPage before any storage access.
func (s *ChatService) GetPage(ctx context.Context, roomID string, page, size int) ([]domain.Message, error) {
	if page < 0 || size <= 0 {
		return nil, domain.ErrInvalidPage
	}

	room, err := s.store.FindByRoomID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, domain.ErrRoomNotFound
	}

	n := len(room.Messages)
	// Guard before multiplying: page*size overflows for huge page values,
	// and any page past n/size cannot intersect the history.
	if page > n/size {
		return []domain.Message{}, nil
	}
	end := n - page*size
	if end <= 0 {
		return []domain.Message{}, nil
	}
	start := end - size
	if start < 0 {
		start = 0
	}

	// Copy the window so callers cannot mutate stored state through it.
	window := make([]domain.Message, end-start)
	copy(window, room.Messages[start:end])
	return window, nil
}
