package store

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// MemoryStore keeps the catalogue in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]Entry
}

var _ Catalog = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]Entry),
	}
}

func (m *MemoryStore) Questions(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out, nil
}

func (m *MemoryStore) Answer(_ context.Context, question string) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[question]
	if !ok {
		return Entry{}, errors.Wrapf(ErrQuestionNotFound, "%q", question)
	}
	return copyEntry(e), nil
}

func (m *MemoryStore) Upsert(_ context.Context, e Entry) error {
	if err := validate(e); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[e.Question]; !ok {
		m.order = append(m.order, e.Question)
	}
	m.entries[e.Question] = copyEntry(e)
	return nil
}

func copyEntry(e Entry) Entry {
	e.Pictures = append([]string{}, e.Pictures...)
	return e
}
