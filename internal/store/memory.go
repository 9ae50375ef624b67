package store

import "github.com/notekeeper/notekeeper-go/internal/model"

// MemoryStore keeps the session in process memory. It backs tests and any
// caller that does not want persistence across runs.
type MemoryStore struct {
	session *model.Session
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Set(session *model.Session) error {
	copied := *session
	s.session = &copied
	return nil
}

func (s *MemoryStore) Get() (*model.Session, error) {
	if s.session == nil {
		return nil, nil
	}
	copied := *s.session
	return &copied, nil
}

func (s *MemoryStore) Clear() error {
	s.session = nil
	return nil
}
