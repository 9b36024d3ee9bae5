package domain

import "errors"

var (
	// ErrRoomNotFound is returned when an operation targets a room id with
	// no matching room. Sends are rejected, never auto-create.
	ErrRoomNotFound = errors.New("room not found")

	// ErrRoomExists is returned when creating a room whose id is already
	// taken. The existing room is left untouched.
	ErrRoomExists = errors.New("room already exists")

	// ErrInvalidPage is returned for page < 0 or size <= 0 on a history
	// request, before any storage access.
	ErrInvalidPage = errors.New("invalid page request")

	// ErrStorageUnavailable is returned when the persistence layer fails or
	// exceeds its deadline. No partial effect is committed.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
