package store

import (
	"context"
	"sync"
)

// Memory is an in-memory credential store for development and tests.
// Credentials do not survive a restart.
type Memory struct {
	mu      sync.Mutex
	users   map[string]string
	compare Comparator
}

var _ CredentialStore = (*Memory)(nil)

// NewMemory creates an empty in-memory store. A nil comparator means
// PlainComparator.
func NewMemory(cmp Comparator) *Memory {
	if cmp == nil {
		cmp = PlainComparator{}
	}
	return &Memory{users: make(map[string]string), compare: cmp}
}

// Register creates a credential, or ErrUsernameTaken if one exists.
func (m *Memory) Register(_ context.Context, username, secret string) error {
	encoded, err := m.compare.Encode(secret)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[username]; exists {
		return ErrUsernameTaken
	}
	m.users[username] = encoded
	return nil
}

// Validate reports whether the pair matches a stored credential.
func (m *Memory) Validate(_ context.Context, username, secret string) (bool, error) {
	m.mu.Lock()
	stored, exists := m.users[username]
	m.mu.Unlock()

	if !exists {
		return false, nil
	}
	return m.compare.Compare(stored, secret), nil
}
