package mirror

import (
	"context"
	"sync"
)

// memoryStore is an in-process mirror, used in tests and as a degraded-mode
// fallback when Redis is not configured.
type memoryStore struct {
	mu    sync.RWMutex
	snaps map[uint]*Snapshot
}

func NewMemoryStore() Store {
	return &memoryStore{snaps: map[uint]*Snapshot{}}
}

func (s *memoryStore) Save(_ context.Context, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := &Snapshot{
		AttemptID:  snap.AttemptID,
		SavedAt:    snap.SavedAt,
		Selections: make(map[uint][]uint, len(snap.Selections)),
	}
	for q, sel := range snap.Selections {
		cp.Selections[q] = append([]uint(nil), sel...)
	}
	s.snaps[snap.AttemptID] = cp
	return nil
}

func (s *memoryStore) Load(_ context.Context, attemptID uint) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snaps[attemptID]
	if !ok {
		return nil, nil
	}
	return snap, nil
}

func (s *memoryStore) Clear(_ context.Context, attemptID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snaps, attemptID)
	return nil
}
