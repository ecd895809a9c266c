package account

import (
	"context"
	"strings"
	"sync"
	"time"

	"glowme.io/internal/ids"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps accounts in process memory. It backs local development
// and tests; production uses PGStore.
type MemoryStore struct {
	mu         sync.Mutex
	users      map[string]*User // by id
	byEmail    map[string]string
	birthData  map[string]*BirthData
	priorities map[string]*Priorities
	now        func() time.Time
}

type MemoryOption func(*MemoryStore)

func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		users:      make(map[string]*User),
		byEmail:    make(map[string]string),
		birthData:  make(map[string]*BirthData),
		priorities: make(map[string]*Priorities),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) CreateUser(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(u.Email))
	if _, ok := s.byEmail[email]; ok {
		return ErrAlreadyExists
	}
	if u.ID == "" {
		u.ID = ids.New()
	}
	if u.Status == "" {
		u.Status = StatusPending
	}
	now := s.now().UTC()
	u.Email = email
	u.CreatedAt = now
	u.UpdatedAt = now

	cp := *u
	s.users[u.ID] = &cp
	s.byEmail[email] = u.ID
	return nil
}

func (s *MemoryStore) FindUser(_ context.Context, id string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) FindUserByEmail(_ context.Context, email string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s.users[id]
	return &cp, nil
}

func (s *MemoryStore) SaveBirthData(_ context.Context, bd *BirthData) (*BirthData, error) {
	if err := bd.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *bd
	cp.DataConsent = true
	cp.UpdatedAt = s.now().UTC()
	s.birthData[bd.UserID] = &cp
	out := cp
	return &out, nil
}

func (s *MemoryStore) BirthDataFor(_ context.Context, userID string) (*BirthData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bd, ok := s.birthData[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *bd
	return &cp, nil
}

func (s *MemoryStore) SavePriorities(_ context.Context, p *Priorities) (*Priorities, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	cp.UpdatedAt = s.now().UTC()
	s.priorities[p.UserID] = &cp
	out := cp
	return &out, nil
}

func (s *MemoryStore) PrioritiesFor(_ context.Context, userID string) (*Priorities, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.priorities[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) RecordLoginAttempt(context.Context, string, string, bool) error {
	return nil
}
