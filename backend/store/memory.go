package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"gitea.kood.tech/petrkubec/staff-directory/backend/profile"
)

// MemoryStore keeps the collection in process memory. Used by tests and by
// the "memory" driver for local runs.
type MemoryStore struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]profile.Profile
}

// NewMemoryStore creates a store seeded with profiles. Profiles without an id
// get one assigned.
func NewMemoryStore(seed ...profile.Profile) *MemoryStore {
	s := &MemoryStore{byID: make(map[string]profile.Profile)}
	for _, p := range seed {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if _, ok := s.byID[p.ID]; !ok {
			s.order = append(s.order, p.ID)
		}
		s.byID[p.ID] = p
	}
	return s
}

func (s *MemoryStore) ListAll(ctx context.Context) ([]profile.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("list", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]profile.Profile, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out, nil
}

func (s *MemoryStore) Insert(ctx context.Context, fields profile.Profile) (profile.Profile, error) {
	if err := ctx.Err(); err != nil {
		return profile.Profile{}, unavailable("insert", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p := fields.WithID(uuid.NewString())
	s.order = append(s.order, p.ID)
	s.byID[p.ID] = p
	return p, nil
}

func (s *MemoryStore) UpdateByID(ctx context.Context, id string, fields profile.Profile) error {
	if err := ctx.Err(); err != nil {
		return unavailable("update", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return notFound(id)
	}
	s.byID[id] = fields.WithID(id)
	return nil
}

func (s *MemoryStore) DeleteByID(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return unavailable("delete", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return notFound(id)
	}
	delete(s.byID, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

// Truncate removes every profile.
func (s *MemoryStore) Truncate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.byID = make(map[string]profile.Profile)
	return nil
}
