package session

import "sync"

// Record is the durable session record: the token, plus the user so a
// restart can show who is logged in without a network round trip.
type Record struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user,omitempty"`
}

// Storage persists the session record across process restarts. The HTTP
// transport reads the token through the same interface so it never depends
// on the in-memory store's lifecycle.
//
// Load returns a zero Record (not an error) when nothing is persisted.
type Storage interface {
	Save(rec Record) error
	Load() (Record, error)
	Clear() error
}

// MemoryStorage is an in-process Storage, used by tests and as a fallback
// when no durable backend is available.
type MemoryStorage struct {
	mu  sync.Mutex
	rec Record
}

func (m *MemoryStorage) Save(rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = rec
	return nil
}

func (m *MemoryStorage) Load() (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rec, nil
}

func (m *MemoryStorage) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = Record{}
	return nil
}
