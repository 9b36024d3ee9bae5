// Package testutil provides shared mocks, fixtures and helpers for testing
// the roomchat application.
package testutil

import (
	"context"
	"sync"
	"time"

	"roomchat/internal/domain"
)

// MockRoomStore implements domain.RoomStore in memory. It is safe for
// concurrent use. Set the *Func fields to override individual operations.
type MockRoomStore struct {
	mu sync.Mutex

	FindByRoomIDFunc func(ctx context.Context, roomID string) (*domain.Room, error)
	CreateFunc       func(ctx context.Context, roomID string) (*domain.Room, error)
	SaveFunc         func(ctx context.Context, room *domain.Room) error

	Rooms map[string]*domain.Room
}

// NewMockRoomStore creates a MockRoomStore with initialized storage
func NewMockRoomStore() *MockRoomStore {
	return &MockRoomStore{
		Rooms: make(map[string]*domain.Room),
	}
}

func (m *MockRoomStore) FindByRoomID(ctx context.Context, roomID string) (*domain.Room, error) {
	if m.FindByRoomIDFunc != nil {
		return m.FindByRoomIDFunc(ctx, roomID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.Rooms[roomID]
	if !ok {
		return nil, nil
	}
	snapshot := *room
	snapshot.Messages = append([]domain.Message(nil), room.Messages...)
	return &snapshot, nil
}

func (m *MockRoomStore) Create(ctx context.Context, roomID string) (*domain.Room, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, roomID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Rooms[roomID]; ok {
		return nil, domain.ErrRoomExists
	}
	room := &domain.Room{
		ID:        "internal-" + roomID,
		RoomID:    roomID,
		Messages:  []domain.Message{},
		CreatedAt: time.Now(),
	}
	m.Rooms[roomID] = room
	return room, nil
}

func (m *MockRoomStore) Save(ctx context.Context, room *domain.Room) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, room)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Rooms[room.RoomID]; !ok {
		return domain.ErrRoomNotFound
	}
	stored := *room
	stored.Messages = append([]domain.Message(nil), room.Messages...)
	m.Rooms[room.RoomID] = &stored
	return nil
}

// Seed installs a room with pre-built messages, bypassing Create
func (m *MockRoomStore) Seed(room *domain.Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Rooms[room.RoomID] = room
}

// MessageCount reports how many messages are stored for a room
func (m *MockRoomStore) MessageCount(roomID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.Rooms[roomID]
	if !ok {
		return 0
	}
	return len(room.Messages)
}

// MockMessagePublisher records published messages per room
type MockMessagePublisher struct {
	mu sync.Mutex

	PublishMessageFunc func(ctx context.Context, roomID string, msg *domain.Message) error

	Published map[string][]*domain.Message
}

// NewMockMessagePublisher creates a MockMessagePublisher with initialized maps
func NewMockMessagePublisher() *MockMessagePublisher {
	return &MockMessagePublisher{
		Published: make(map[string][]*domain.Message),
	}
}

func (m *MockMessagePublisher) PublishMessage(ctx context.Context, roomID string, msg *domain.Message) error {
	if m.PublishMessageFunc != nil {
		return m.PublishMessageFunc(ctx, roomID, msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Published[roomID] = append(m.Published[roomID], msg)
	return nil
}

// PublishedCount reports how many messages were published for a room
func (m *MockMessagePublisher) PublishedCount(roomID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Published[roomID])
}
