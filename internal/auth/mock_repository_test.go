package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type mockRepository struct {
	users        map[string]*User
	usersByEmail map[string]*User
	mu           sync.RWMutex
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:        make(map[string]*User),
		usersByEmail: make(map[string]*User),
	}
}

func (r *mockRepository) CreateUser(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.usersByEmail[user.Email]; exists {
		return ErrUserExists
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	// Clone the user to prevent external modifications
	stored := *user
	r.users[stored.ID] = &stored
	r.usersByEmail[stored.Email] = &stored
	return nil
}

func (r *mockRepository) GetUserByEmail(_ context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.usersByEmail[email]
	if !exists {
		return nil, ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *mockRepository) GetUserByID(_ context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *mockRepository) UpdateUser(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.users[user.ID]
	if !exists {
		return ErrUserNotFound
	}

	stored.Name = user.Name
	stored.PasswordHash = user.PasswordHash
	stored.EmailVerified = user.EmailVerified
	stored.UpdatedAt = time.Now()
	return nil
}

// remove drops a user, simulating an account that vanished mid-flow.
func (r *mockRepository) remove(email string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user, exists := r.usersByEmail[email]; exists {
		delete(r.users, user.ID)
		delete(r.usersByEmail, email)
	}
}
