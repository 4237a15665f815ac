package state

import (
	"github.com/cuemby/tessera/pkg/storage"
)

// ExecutorCounter is the persisted monotonic counter used to mint fresh
// executor ids.
type ExecutorCounter struct {
	persisted[int64]
}

// NewExecutorCounter creates the counter over the given backend, starting
// at zero.
func NewExecutorCounter(store storage.Store) *ExecutorCounter {
	var zero int64
	return &ExecutorCounter{persisted[int64]{
		key:   KeyExecutorCounter,
		store: store,
		def:   func() *int64 { v := zero; return &v },
	}}
}

// Get returns the counter's current value without advancing it.
func (s *ExecutorCounter) Get() (int64, error) {
	v, err := s.get()
	if err != nil {
		return 0, err
	}
	return *v, nil
}

// GetAndIncrement returns the current value and persists the increment
// before returning.
func (s *ExecutorCounter) GetAndIncrement() (int64, error) {
	v, err := s.get()
	if err != nil {
		return 0, err
	}
	current := *v
	next := current + 1
	if err := s.set(&next); err != nil {
		return 0, err
	}
	return current, nil
}
