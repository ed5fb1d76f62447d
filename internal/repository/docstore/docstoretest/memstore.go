// Package docstoretest provides an in-memory Store for repository tests.
package docstoretest

import (
	"context"
	"sync"

	"github.com/sibyl-dev/sibyl/internal/db"
)

// MemStore is a map-backed stand-in for the Redis-backed store.
type MemStore struct {
	mu   sync.Mutex
	docs map[string][]byte
	sets map[string]map[string]bool

	// Optional failure hooks. When set, the corresponding operation
	// returns the error instead of touching the maps.
	JSONSetErr error
	JSONGetErr error
	DelErr     error
	ExistsErr  error
	SetOpErr   error
}

// NewMemStore creates an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		docs: map[string][]byte{},
		sets: map[string]map[string]bool{},
	}
}

// JSONSet stores document bytes under key.
func (m *MemStore) JSONSet(_ context.Context, key, _ string, data []byte) error {
	if m.JSONSetErr != nil {
		return m.JSONSetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.docs[key] = cp
	return nil
}

// JSONGet returns document bytes or db.ErrKeyNotFound.
func (m *MemStore) JSONGet(_ context.Context, key string, _ ...string) ([]byte, error) {
	if m.JSONGetErr != nil {
		return nil, m.JSONGetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.docs[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return data, nil
}

// Del removes a document.
func (m *MemStore) Del(_ context.Context, key string) error {
	if m.DelErr != nil {
		return m.DelErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, key)
	return nil
}

// Exists reports document presence.
func (m *MemStore) Exists(_ context.Context, key string) (bool, error) {
	if m.ExistsErr != nil {
		return false, m.ExistsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.docs[key]
	return ok, nil
}

// SAdd adds members to a set.
func (m *MemStore) SAdd(_ context.Context, key string, members ...string) error {
	if m.SetOpErr != nil {
		return m.SetOpErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.sets[key]
	if !ok {
		set = map[string]bool{}
		m.sets[key] = set
	}
	for _, member := range members {
		set[member] = true
	}
	return nil
}

// SRem removes members from a set.
func (m *MemStore) SRem(_ context.Context, key string, members ...string) error {
	if m.SetOpErr != nil {
		return m.SetOpErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, member := range members {
		delete(m.sets[key], member)
	}
	return nil
}

// SMembers lists set members in unspecified order.
func (m *MemStore) SMembers(_ context.Context, key string) ([]string, error) {
	if m.SetOpErr != nil {
		return nil, m.SetOpErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	members := make([]string, 0, len(m.sets[key]))
	for member := range m.sets[key] {
		members = append(members, member)
	}
	return members, nil
}
