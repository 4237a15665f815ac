package state

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cuemby/tessera/pkg/storage"
)

// Stable blob keys in the backing store.
const (
	KeyClusterState       = "CassandraClusterState"
	KeyHealthCheckHistory = "CassandraClusterHealthCheckHistory"
	KeyConfiguration      = "CassandraFrameworkConfiguration"
	KeyClusterJobs        = "CassandraClusterJobs"
	KeyExecutorCounter    = "ExecutorCounter"
)

// ErrStateCorrupt is returned when a persisted blob cannot be decoded.
// It is fatal to the scheduler and must be surfaced, not swallowed.
var ErrStateCorrupt = errors.New("persisted state corrupt")

// persisted wraps one versionless JSON blob under a stable key. It is the
// common shape of every typed store in this package: get decodes the
// current blob (or returns the supplied default when absent), set encodes
// and overwrites, returning only after the backend acknowledged the write.
type persisted[T any] struct {
	key   string
	store storage.Store
	def   func() *T
}

func (p *persisted[T]) get() (*T, error) {
	data, ok, err := p.store.Get(p.key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p.key, err)
	}
	if !ok {
		return p.def(), nil
	}
	v := new(T)
	if err := json.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStateCorrupt, p.key, err)
	}
	return v, nil
}

func (p *persisted[T]) set(v *T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", p.key, err)
	}
	if err := p.store.Set(p.key, data); err != nil {
		return fmt.Errorf("write %s: %w", p.key, err)
	}
	return nil
}
