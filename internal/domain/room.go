package domain

import (
	"context"
	"time"
)

// Room represents a chat room and its ordered message history. ID is the
// storage-assigned identifier and never leaves the persistence layer's
// contract; RoomID is the caller-chosen identifier used for all lookups.
// Messages are ordered by append time, oldest first.
type Room struct {
	ID        string    `json:"-"`
	RoomID    string    `json:"room_id"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
}

// RoomStore defines the interface for room persistence. A room and its
// message sequence form one aggregate: Save writes the whole thing back.
type RoomStore interface {
	// FindByRoomID returns the room for the given external identifier, or
	// (nil, nil) when no such room exists. Absence is not an error.
	FindByRoomID(ctx context.Context, roomID string) (*Room, error)

	// Create stores a new empty room. Returns ErrRoomExists when a room
	// with the same RoomID is already stored.
	Create(ctx context.Context, roomID string) (*Room, error)

	// Save persists the full aggregate, overwriting the stored message
	// sequence with room.Messages.
	Save(ctx context.Context, room *Room) error
}
