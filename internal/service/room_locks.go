package service

import "sync"

// roomLocks hands out one mutex per external room id so that conflicting
// mutations of the same room serialize while different rooms never contend.
// Entries are never evicted; rooms are never deleted either, so the registry
// grows with the room count, not with traffic.
type roomLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newRoomLocks() *roomLocks {
	return &roomLocks{
		locks: make(map[string]*sync.Mutex),
	}
}

// get returns the mutex for roomID, creating it on first use.
func (r *roomLocks) get(roomID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.locks[roomID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[roomID] = lock
	}
	return lock
}
