package kv

import (
	"context"
	"sync"
)

type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string][]byte{}}
}

type memoryTx struct {
	base     map[string][]byte
	writes   map[string][]byte
	deletes  map[string]bool
	readOnly bool
}

func (t *memoryTx) Get(key string) ([]byte, bool, error) {
	if t.deletes[key] {
		return nil, false, nil
	}
	if v, ok := t.writes[key]; ok {
		return append([]byte(nil), v...), true, nil
	}
	v, ok := t.base[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (t *memoryTx) Set(key string, value []byte) error {
	if t.readOnly {
		return unavailable(errReadOnly, "memory set")
	}
	delete(t.deletes, key)
	t.writes[key] = append([]byte(nil), value...)
	return nil
}

func (t *memoryTx) Delete(key string) error {
	if t.readOnly {
		return unavailable(errReadOnly, "memory delete")
	}
	delete(t.writes, key)
	t.deletes[key] = true
	return nil
}

func (s *MemoryStore) View(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return unavailable(errClosed, "memory view")
	}
	return fn(&memoryTx{base: s.data, readOnly: true})
}

func (s *MemoryStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return unavailable(errClosed, "memory update")
	}
	tx := &memoryTx{
		base:    s.data,
		writes:  map[string][]byte{},
		deletes: map[string]bool{},
	}
	if err := fn(tx); err != nil {
		return err
	}
	for k := range tx.deletes {
		delete(s.data, k)
	}
	for k, v := range tx.writes {
		s.data[k] = v
	}
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
