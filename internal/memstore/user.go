package memstore

import (
	"context"
	"sync"

	"github.com/sumire/lostfound/internal/domain"
)

type providerKey struct {
	provider   domain.AuthProvider
	providerID string
}

// UserStore is an in-memory user store.
type UserStore struct {
	mu         sync.RWMutex
	clock      *clock
	nextID     int64
	users      map[int64]*domain.User
	byProvider map[providerKey]int64
}

// NewUserStore creates an empty UserStore.
func NewUserStore() *UserStore {
	return &UserStore{
		clock:      newClock(),
		users:      make(map[int64]*domain.User),
		byProvider: make(map[providerKey]int64),
	}
}

// FindByID retrieves a user by their ID.
func (s *UserStore) FindByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *u
	return &out, nil
}

// FindByProviderID retrieves a user by their OAuth provider and provider ID.
func (s *UserStore) FindByProviderID(_ context.Context, provider domain.AuthProvider, providerID string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byProvider[providerKey{provider, providerID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *s.users[id]
	return &out, nil
}

// Upsert creates a user or refreshes the profile of an existing one.
func (s *UserStore) Upsert(_ context.Context, user domain.User) (*domain.User, error) {
	now, _ := s.clock.tick()

	s.mu.Lock()
	defer s.mu.Unlock()
	key := providerKey{user.Provider, user.ProviderID}
	if id, ok := s.byProvider[key]; ok {
		existing := s.users[id]
		existing.Email = user.Email
		existing.DisplayName = user.DisplayName
		existing.AvatarURL = user.AvatarURL
		existing.UpdatedAt = now
		out := *existing
		return &out, nil
	}

	s.nextID++
	user.ID = s.nextID
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = &user
	s.byProvider[key] = user.ID

	out := user
	return &out, nil
}
