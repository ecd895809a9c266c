package session

import (
	"context"
	"sync"
	"time"

	"glowme.io/internal/ids"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps sessions in process memory. Used in tests and in dev
// mode when no database DSN is configured; sessions vanish on restart.
type MemoryStore struct {
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]Session
}

// MemoryOption configures MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryClock overrides the time source (useful for tests).
func WithMemoryClock(fn func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		now:      time.Now,
		sessions: make(map[string]Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Create(ctx context.Context, userID string) (*Session, error) {
	now := s.now().UTC()
	sess := Session{
		ID:         ids.New(),
		UserID:     userID,
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(IdleTTL),
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return &sess, nil
}

func (s *MemoryStore) Find(ctx context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !sess.ExpiresAt.After(s.now()) {
		delete(s.sessions, id)
		return nil, ErrNotFound
	}
	out := sess
	return &out, nil
}

func (s *MemoryStore) Touch(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	now := s.now()
	if !ok || !sess.ExpiresAt.After(now) {
		return false, ErrNotFound
	}
	if sess.ExpiresAt.Sub(now) > RenewThreshold {
		return false, nil
	}
	sess.LastSeenAt = now.UTC()
	sess.ExpiresAt = now.UTC().Add(IdleTTL)
	s.sessions[id] = sess
	return true, nil
}

func (s *MemoryStore) Destroy(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) DestroyAllForUser(ctx context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dropped := 0
	for id, sess := range s.sessions {
		if sess.UserID == userID {
			delete(s.sessions, id)
			dropped++
		}
	}
	return dropped, nil
}
