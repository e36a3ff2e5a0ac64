package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"sigefgate/internal/session/models"
	"sigefgate/pkg/fault"
)

// MemoryStore keeps sessions in process memory. Used by tests and
// single-process deployments without a configured database.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]models.Session
	latest   uuid.UUID
}

// NewMemory creates an empty in-memory session store.
func NewMemory() *MemoryStore {
	return &MemoryStore{sessions: make(map[uuid.UUID]models.Session)}
}

func (s *MemoryStore) LoadLatest(_ context.Context) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == uuid.Nil {
		return nil, fault.ErrNoSession
	}
	session := s.sessions[s.latest]
	copied := cloneSession(session)
	return &copied, nil
}

func (s *MemoryStore) Save(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = cloneSession(*session)
	s.latest = session.ID
	return nil
}

// cloneSession copies the cookie slices so callers cannot mutate stored state
// through the returned pointer.
func cloneSession(in models.Session) models.Session {
	out := in
	out.IdentityCookies = append([]models.Cookie(nil), in.IdentityCookies...)
	out.RegistryCookies = append([]models.Cookie(nil), in.RegistryCookies...)
	return out
}
