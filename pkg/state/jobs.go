package state

import (
	"fmt"

	"github.com/cuemby/tessera/pkg/storage"
	"github.com/cuemby/tessera/pkg/types"
)

// Jobs is the persisted cluster-job store: the optional in-flight job and
// the most recent terminal job per type.
type Jobs struct {
	persisted[types.ClusterJobs]
}

// NewJobs creates the store over the given backend.
func NewJobs(store storage.Store) *Jobs {
	return &Jobs{persisted[types.ClusterJobs]{
		key:   KeyClusterJobs,
		store: store,
		def:   func() *types.ClusterJobs { return &types.ClusterJobs{} },
	}}
}

// Get returns the current blob.
func (s *Jobs) Get() (*types.ClusterJobs, error) {
	return s.get()
}

// CurrentJob returns the in-flight cluster job, or nil.
func (s *Jobs) CurrentJob() (*types.ClusterJobStatus, error) {
	v, err := s.get()
	if err != nil {
		return nil, err
	}
	return v.CurrentClusterJob, nil
}

// SetCurrentJob replaces the in-flight job; nil clears it.
func (s *Jobs) SetCurrentJob(job *types.ClusterJobStatus) error {
	v, err := s.get()
	if err != nil {
		return err
	}
	v.CurrentClusterJob = job
	return s.set(v)
}

// LastJob returns the most recent terminal job of the given type, or nil.
func (s *Jobs) LastJob(jobType types.ClusterJobType) (*types.ClusterJobStatus, error) {
	v, err := s.get()
	if err != nil {
		return nil, err
	}
	for i := len(v.LastClusterJobs) - 1; i >= 0; i-- {
		if v.LastClusterJobs[i].JobType == jobType {
			job := v.LastClusterJobs[i]
			return &job, nil
		}
	}
	return nil, nil
}

// UpdateNodeStatus folds a node-job status report into the current job.
// A running report replaces the current node's status; a terminal report
// moves the node to the completed list and, once no nodes remain, finishes
// the job at nowMs.
func (s *Jobs) UpdateNodeStatus(current *types.ClusterJobStatus, status types.NodeJobStatus, nowMs int64) error {
	if current.CurrentNode == nil || current.CurrentNode.ExecutorID != status.ExecutorID {
		return nil
	}

	job := *current
	if status.Running {
		job.CurrentNode = &status
		return s.SetCurrentJob(&job)
	}

	job.CurrentNode = nil
	job.CompletedNodes = append(append([]types.NodeJobStatus{}, current.CompletedNodes...), status)
	if len(job.RemainingNodes) == 0 {
		job.FinishedTimestampMs = nowMs
		return s.FinishJob(&job)
	}
	return s.SetCurrentJob(&job)
}

// RemoveTaskForCurrentNode fails the current node out of the job after its
// task was lost, recording the termination details.
func (s *Jobs) RemoveTaskForCurrentNode(status types.TaskStatus, current *types.ClusterJobStatus) error {
	if current.CurrentNode == nil {
		return nil
	}

	failed := *current.CurrentNode
	failed.Failed = true
	failed.FailureMessage = fmt.Sprintf(
		"TaskStatus:%s, reason:%s, source:%s, healthy:%t, message:%s",
		status.State, status.Reason, status.Source, status.Healthy, status.Message,
	)

	job := *current
	job.CurrentNode = nil
	job.CompletedNodes = append(append([]types.NodeJobStatus{}, current.CompletedNodes...), failed)
	return s.SetCurrentJob(&job)
}

// NextNode consumes the node's executor id from the remaining list and
// makes it the job's current node.
func (s *Jobs) NextNode(current *types.ClusterJobStatus, node types.NodeJobStatus) error {
	job := *current
	job.CurrentNode = &node
	job.RemainingNodes = nil
	for _, executorID := range current.RemainingNodes {
		if executorID != node.ExecutorID {
			job.RemainingNodes = append(job.RemainingNodes, executorID)
		}
	}
	return s.SetCurrentJob(&job)
}

// FinishJob moves the job into the per-type terminal history, displacing
// any prior entry of the same type, and clears the current job.
func (s *Jobs) FinishJob(job *types.ClusterJobStatus) error {
	v, err := s.get()
	if err != nil {
		return err
	}

	last := []types.ClusterJobStatus{*job}
	for _, prior := range v.LastClusterJobs {
		if prior.JobType != job.JobType {
			last = append(last, prior)
		}
	}
	return s.set(&types.ClusterJobs{LastClusterJobs: last})
}
