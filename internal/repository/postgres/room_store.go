package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"roomchat/internal/domain"

	"github.com/google/uuid"
)

// RoomStore implements domain.RoomStore for PostgreSQL. Each room is one
// row; the message sequence is embedded as a JSONB column so the aggregate
// is read and written as a unit.
type RoomStore struct {
	db *sql.DB
}

// NewRoomStore creates a new PostgreSQL room store
func NewRoomStore(db *sql.DB) *RoomStore {
	return &RoomStore{db: db}
}

// FindByRoomID retrieves a room with its full message sequence by external
// room id. Returns (nil, nil) when no room matches.
func (s *RoomStore) FindByRoomID(ctx context.Context, roomID string) (*domain.Room, error) {
	query := `
		SELECT id, room_id, messages, created_at
		FROM rooms
		WHERE room_id = $1
	`
	room := &domain.Room{}
	var rawMessages []byte
	err := s.db.QueryRowContext(ctx, query, roomID).Scan(
		&room.ID,
		&room.RoomID,
		&rawMessages,
		&room.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageError("find room", err)
	}

	if err := json.Unmarshal(rawMessages, &room.Messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages for room %q: %w", roomID, err)
	}
	return room, nil
}

// Create inserts a new empty room. The unique constraint on room_id makes
// duplicate creation fail atomically even against concurrent creators.
func (s *RoomStore) Create(ctx context.Context, roomID string) (*domain.Room, error) {
	query := `
		INSERT INTO rooms (id, room_id, messages)
		VALUES ($1, $2, '[]'::jsonb)
		RETURNING created_at
	`
	room := &domain.Room{
		ID:       uuid.NewString(),
		RoomID:   roomID,
		Messages: []domain.Message{},
	}
	err := s.db.QueryRowContext(ctx, query, room.ID, room.RoomID).Scan(&room.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err, roomIDConstraint) {
			return nil, domain.ErrRoomExists
		}
		return nil, storageError("create room", err)
	}
	return room, nil
}

// Save overwrites the stored message sequence with room.Messages.
func (s *RoomStore) Save(ctx context.Context, room *domain.Room) error {
	messages, err := json.Marshal(room.Messages)
	if err != nil {
		return fmt.Errorf("failed to encode messages for room %q: %w", room.RoomID, err)
	}

	query := `
		UPDATE rooms
		SET messages = $2
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query, room.ID, messages)
	if err != nil {
		return storageError("save room", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return storageError("save room", err)
	}
	if affected == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}

// storageError classifies a driver or deadline failure as storage
// unavailability. Both the sentinel and the cause stay in the chain for
// errors.Is and errors.As.
func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(domain.ErrStorageUnavailable, err))
}
