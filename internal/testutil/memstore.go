package testutil

import (
	"context"
	"sync"

	"taskdeck/internal/service"
)

// MemoryStore is an in-memory credstore.Store.
type MemoryStore struct {
	mu      sync.Mutex
	session *service.Session

	LoadErr   error
	SaveErr   error
	RemoveErr error

	Saves   int
	Removes int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Put seeds the stored session without counting a save.
func (m *MemoryStore) Put(sess service.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = &sess
}

// Stored returns the stored session, if any.
func (m *MemoryStore) Stored() (service.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return service.Session{}, false
	}
	return *m.session, true
}

func (m *MemoryStore) Load(ctx context.Context) (service.Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return service.Session{}, false, m.LoadErr
	}
	if m.session == nil {
		return service.Session{}, false, nil
	}
	return *m.session, true, nil
}

func (m *MemoryStore) Save(ctx context.Context, sess service.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Saves++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.session = &sess
	return nil
}

func (m *MemoryStore) Remove(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Removes++
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	m.session = nil
	return nil
}

func (m *MemoryStore) Close() error { return nil }
