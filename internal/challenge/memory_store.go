package challenge

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps challenges in process memory. It is meant for local
// development and tests; state is lost on restart and not shared between
// instances.
type MemoryStore struct {
	challenges map[string]*Challenge
	now        func() time.Time
	mu         sync.RWMutex
}

// NewMemoryStore returns an empty store. A nil clock means time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		challenges: make(map[string]*Challenge),
		now:        now,
	}
}

func (s *MemoryStore) FindLatest(_ context.Context, email string, purpose Purpose) (*Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *Challenge
	for _, c := range s.challenges {
		if c.Email != email || c.Purpose != purpose {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
			latest = c
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}

	if latest.Expired(s.now()) {
		delete(s.challenges, latest.ID)
		return nil, ErrNotFound
	}

	// Clone the record to prevent external modifications
	clone := *latest
	return &clone, nil
}

func (s *MemoryStore) DeleteAll(_ context.Context, email string, purpose Purpose) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, c := range s.challenges {
		if c.Email == email && c.Purpose == purpose {
			delete(s.challenges, id)
		}
	}
	return nil
}

func (s *MemoryStore) Create(_ context.Context, email string, purpose Purpose, otpHash string, expiresAt time.Time) (*Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c := &Challenge{
		ID:         uuid.NewString(),
		Email:      email,
		Purpose:    purpose,
		OTPHash:    otpHash,
		ExpiresAt:  expiresAt,
		LastSentAt: now,
		CreatedAt:  now,
	}
	s.challenges[c.ID] = c

	clone := *c
	return &clone, nil
}

func (s *MemoryStore) IncrementAttempts(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, exists := s.challenges[id]
	if !exists {
		return ErrNotFound
	}
	c.Attempts++
	return nil
}

func (s *MemoryStore) PurgeExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var purged int64
	for id, c := range s.challenges {
		if c.Expired(now) {
			delete(s.challenges, id)
			purged++
		}
	}
	return purged, nil
}

// Len reports how many challenges are held, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.challenges)
}
