package draft

import (
	"sort"
	"sync"
	"time"

	"timeline-cli/internal/model"
)

// MemoryStore keeps encoded drafts in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
	Now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string][]byte{}}
}

func (s *MemoryStore) Save(key string, snap model.Snapshot) error {
	if s.Now != nil {
		snap.SavedAt = s.Now()
	} else {
		snap.SavedAt = time.Now()
	}
	b, err := encode(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[key] = b
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Load(key string) (model.Snapshot, bool, error) {
	s.mu.Lock()
	b, ok := s.data[key]
	s.mu.Unlock()
	if !ok {
		return model.Snapshot{}, false, nil
	}
	snap, ok := decode(b)
	return snap, ok, nil
}

func (s *MemoryStore) Clear(key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.data))
	for k := range s.data {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

// PutRaw stores bytes verbatim under key.
func (s *MemoryStore) PutRaw(key string, b []byte) {
	s.mu.Lock()
	s.data[key] = append([]byte(nil), b...)
	s.mu.Unlock()
}

// Has reports whether anything is stored under key.
func (s *MemoryStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	return ok
}
