package state

import (
	"github.com/cuemby/tessera/pkg/storage"
	"github.com/cuemby/tessera/pkg/types"
)

type healthCheckHistory struct {
	Entries []types.HealthCheckHistoryEntry
}

// HealthCheckHistory is the append-only store of health-check results.
type HealthCheckHistory struct {
	persisted[healthCheckHistory]
}

// NewHealthCheckHistory creates the store over the given backend.
func NewHealthCheckHistory(store storage.Store) *HealthCheckHistory {
	return &HealthCheckHistory{persisted[healthCheckHistory]{
		key:   KeyHealthCheckHistory,
		store: store,
		def:   func() *healthCheckHistory { return &healthCheckHistory{} },
	}}
}

// Entries returns all recorded entries in record order.
func (s *HealthCheckHistory) Entries() ([]types.HealthCheckHistoryEntry, error) {
	v, err := s.get()
	if err != nil {
		return nil, err
	}
	return v.Entries, nil
}

// Record appends an entry.
func (s *HealthCheckHistory) Record(entry types.HealthCheckHistoryEntry) error {
	v, err := s.get()
	if err != nil {
		return err
	}
	v.Entries = append(v.Entries, entry)
	return s.set(v)
}

// Last returns the most recent entry for the executor, or nil if none was
// ever recorded.
func (s *HealthCheckHistory) Last(executorID string) (*types.HealthCheckHistoryEntry, error) {
	v, err := s.get()
	if err != nil {
		return nil, err
	}
	var last *types.HealthCheckHistoryEntry
	for i := range v.Entries {
		e := &v.Entries[i]
		if e.ExecutorID != executorID {
			continue
		}
		if last == nil || e.TimestampMs > last.TimestampMs {
			last = e
		}
	}
	return last, nil
}

// MostRecentPerExecutor returns, for every executor that ever reported,
// its most recent entry.
func (s *HealthCheckHistory) MostRecentPerExecutor() (map[string]types.HealthCheckHistoryEntry, error) {
	v, err := s.get()
	if err != nil {
		return nil, err
	}
	latest := make(map[string]types.HealthCheckHistoryEntry)
	for _, e := range v.Entries {
		if prev, ok := latest[e.ExecutorID]; !ok || e.TimestampMs > prev.TimestampMs {
			latest[e.ExecutorID] = e
		}
	}
	return latest, nil
}
