package wallet

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type mockRepository struct {
	wallets map[string]*Wallet
	clock   time.Time
	mu      sync.Mutex
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		wallets: make(map[string]*Wallet),
		clock:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (r *mockRepository) visible(userID string) []*Wallet {
	var out []*Wallet
	for _, w := range r.wallets {
		if w.UserID == userID && !w.IsHidden {
			out = append(out, w)
		}
	}
	return out
}

func (r *mockRepository) ListVisible(_ context.Context, userID string) ([]Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	found := r.visible(userID)
	sort.Slice(found, func(i, j int) bool {
		if found[i].IsDefault != found[j].IsDefault {
			return found[i].IsDefault
		}
		return found[i].CreatedAt.After(found[j].CreatedAt)
	})

	out := make([]Wallet, 0, len(found))
	for _, w := range found {
		out = append(out, *w)
	}
	return out, nil
}

func (r *mockRepository) Get(_ context.Context, userID, id string) (*Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, exists := r.wallets[id]
	if !exists || w.UserID != userID || w.IsHidden {
		return nil, ErrNotFound
	}
	clone := *w
	return &clone, nil
}

func (r *mockRepository) NewestVisible(_ context.Context, userID string) (*Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var newest *Wallet
	for _, w := range r.visible(userID) {
		if newest == nil || w.CreatedAt.After(newest.CreatedAt) {
			newest = w
		}
	}
	if newest == nil {
		return nil, ErrNotFound
	}
	clone := *newest
	return &clone, nil
}

func (r *mockRepository) HasVisible(_ context.Context, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.visible(userID)) > 0, nil
}

func (r *mockRepository) HasDefault(_ context.Context, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.visible(userID) {
		if w.IsDefault {
			return true, nil
		}
	}
	return false, nil
}

func (r *mockRepository) Create(_ context.Context, w *Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	// Strictly increasing timestamps keep "newest" deterministic.
	r.clock = r.clock.Add(time.Second)
	w.CreatedAt = r.clock
	w.UpdatedAt = r.clock

	stored := *w
	r.wallets[w.ID] = &stored
	return nil
}

func (r *mockRepository) Save(_ context.Context, w *Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *w
	r.wallets[w.ID] = &stored
	return nil
}

func (r *mockRepository) ClearDefault(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.wallets {
		if w.UserID == userID {
			w.IsDefault = false
		}
	}
	return nil
}

func (r *mockRepository) Transaction(_ context.Context, fn func(repo Repository) error) error {
	return fn(r)
}

// raw returns the stored wallet, hidden or not.
func (r *mockRepository) raw(id string) Wallet {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.wallets[id]
}
