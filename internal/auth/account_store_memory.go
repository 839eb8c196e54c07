package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/cliptube/backend/internal/models"
)

// ErrAccountNotFound indicates the identity does not map to a live account.
var ErrAccountNotFound = errors.New("account not found")

// NewInMemoryAccountStore returns an AccountStore backed by an in-memory map.
func NewInMemoryAccountStore() *InMemoryAccountStore {
	return &InMemoryAccountStore{accounts: make(map[string]models.User)}
}

// InMemoryAccountStore implements AccountStore for tests and local development.
type InMemoryAccountStore struct {
	mu       sync.RWMutex
	accounts map[string]models.User
}

// Put stores or replaces an account record.
func (s *InMemoryAccountStore) Put(user models.User) {
	s.mu.Lock()
	s.accounts[user.ID] = user
	s.mu.Unlock()
}

// Remove deletes the account, simulating account deletion with stale tokens.
func (s *InMemoryAccountStore) Remove(userID string) {
	s.mu.Lock()
	delete(s.accounts, userID)
	s.mu.Unlock()
}

// FindByID retrieves an account by identity.
func (s *InMemoryAccountStore) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.RLock()
	user, ok := s.accounts[id]
	s.mu.RUnlock()
	if !ok {
		return models.User{}, ErrAccountNotFound
	}
	return user, nil
}

// SetRefreshToken overwrites the stored refresh token.
func (s *InMemoryAccountStore) SetRefreshToken(_ context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.accounts[userID]
	if !ok {
		return ErrAccountNotFound
	}
	user.RefreshToken = token
	s.accounts[userID] = user
	return nil
}

// SwapRefreshToken replaces the stored token only on byte-exact match.
func (s *InMemoryAccountStore) SwapRefreshToken(_ context.Context, userID, previous, next string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.accounts[userID]
	if !ok {
		return ErrAccountNotFound
	}
	if user.RefreshToken != previous {
		return ErrStaleRefreshToken
	}
	user.RefreshToken = next
	s.accounts[userID] = user
	return nil
}

// ClearRefreshToken removes the stored token.
func (s *InMemoryAccountStore) ClearRefreshToken(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.accounts[userID]
	if !ok {
		return ErrAccountNotFound
	}
	user.RefreshToken = ""
	s.accounts[userID] = user
	return nil
}

// StoredRefreshToken reports the current token value. Useful for tests.
func (s *InMemoryAccountStore) StoredRefreshToken(userID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accounts[userID].RefreshToken
}
