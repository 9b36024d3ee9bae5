package service

import (
	"context"

	"roomchat/internal/domain"
)

// RoomService handles room lifecycle: explicit creation and lookup. Rooms
// are never auto-created by the send path and never deleted.
type RoomService struct {
	store domain.RoomStore
}

func NewRoomService(store domain.RoomStore) *RoomService {
	return &RoomService{store: store}
}

// CreateRoom stores a new empty room under the caller-chosen id. Returns
// domain.ErrRoomExists when the id is already taken; the existing room is
// left untouched.
func (s *RoomService) CreateRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	return s.store.Create(ctx, roomID)
}

// GetRoom returns the room with its full message sequence, or
// domain.ErrRoomNotFound.
func (s *RoomService) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	room, err := s.store.FindByRoomID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}
