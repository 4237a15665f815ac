package state

import (
	"github.com/cuemby/tessera/pkg/storage"
	"github.com/cuemby/tessera/pkg/types"
)

// ClusterState is the persisted topology store: the node list in
// registration order, the reported executor metadata, and the last
// server-launch instant.
type ClusterState struct {
	persisted[types.ClusterState]
}

// NewClusterState creates the store over the given backend.
func NewClusterState(store storage.Store) *ClusterState {
	return &ClusterState{persisted[types.ClusterState]{
		key:   KeyClusterState,
		store: store,
		def:   func() *types.ClusterState { return &types.ClusterState{} },
	}}
}

// Get returns the current blob.
func (s *ClusterState) Get() (*types.ClusterState, error) {
	return s.get()
}

// Nodes returns the registered nodes in registration order.
func (s *ClusterState) Nodes() ([]*types.Node, error) {
	v, err := s.get()
	if err != nil {
		return nil, err
	}
	return v.Nodes, nil
}

// SetNodes replaces the node list.
func (s *ClusterState) SetNodes(nodes []*types.Node) error {
	v, err := s.get()
	if err != nil {
		return err
	}
	v.Nodes = nodes
	return s.set(v)
}

// AddOrSetNode appends the node, or replaces the entry with the same
// hostname.
func (s *ClusterState) AddOrSetNode(node *types.Node) error {
	v, err := s.get()
	if err != nil {
		return err
	}
	for i, existing := range v.Nodes {
		if existing.Hostname == node.Hostname {
			v.Nodes[i] = node
			return s.set(v)
		}
	}
	v.Nodes = append(v.Nodes, node)
	return s.set(v)
}

// NodeCounts returns the registered node and seed counts.
func (s *ClusterState) NodeCounts() (types.NodeCounts, error) {
	v, err := s.get()
	if err != nil {
		return types.NodeCounts{}, err
	}
	counts := types.NodeCounts{NodeCount: len(v.Nodes)}
	for _, node := range v.Nodes {
		if node.Seed {
			counts.SeedCount++
		}
	}
	return counts, nil
}

// ExecutorMetadata returns all reported executor metadata entries.
func (s *ClusterState) ExecutorMetadata() ([]types.ExecutorMetadata, error) {
	v, err := s.get()
	if err != nil {
		return nil, err
	}
	return v.ExecutorMetadata, nil
}

// AddExecutorMetadata records the environment a fresh executor reported.
func (s *ClusterState) AddExecutorMetadata(metadata types.ExecutorMetadata) error {
	v, err := s.get()
	if err != nil {
		return err
	}
	v.ExecutorMetadata = append(v.ExecutorMetadata, metadata)
	return s.set(v)
}

// RemoveExecutorMetadata drops the entry for the given executor, if any.
func (s *ClusterState) RemoveExecutorMetadata(executorID string) error {
	v, err := s.get()
	if err != nil {
		return err
	}
	kept := v.ExecutorMetadata[:0]
	for _, m := range v.ExecutorMetadata {
		if m.ExecutorID != executorID {
			kept = append(kept, m)
		}
	}
	v.ExecutorMetadata = kept
	return s.set(v)
}

// MetadataFor returns the reported metadata for an executor, or nil.
func (s *ClusterState) MetadataFor(executorID string) (*types.ExecutorMetadata, error) {
	v, err := s.get()
	if err != nil {
		return nil, err
	}
	for i := range v.ExecutorMetadata {
		if v.ExecutorMetadata[i].ExecutorID == executorID {
			return &v.ExecutorMetadata[i], nil
		}
	}
	return nil, nil
}

// LastServerLaunchTimestamp returns the millisecond instant of the most
// recent successful server-task launch.
func (s *ClusterState) LastServerLaunchTimestamp() (int64, error) {
	v, err := s.get()
	if err != nil {
		return 0, err
	}
	return v.LastServerLaunchTimestamp, nil
}

// UpdateLastServerLaunchTimestamp stamps the launch throttle.
func (s *ClusterState) UpdateLastServerLaunchTimestamp(timestampMs int64) error {
	v, err := s.get()
	if err != nil {
		return err
	}
	v.LastServerLaunchTimestamp = timestampMs
	return s.set(v)
}
