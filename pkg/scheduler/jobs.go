package scheduler

import (
	"github.com/rs/zerolog"

	"github.com/cuemby/tessera/pkg/clock"
	"github.com/cuemby/tessera/pkg/log"
	"github.com/cuemby/tessera/pkg/metrics"
	"github.com/cuemby/tessera/pkg/types"
)

// StartClusterJob begins a cluster-wide maintenance job of the given type.
// It returns false if a job is already in flight. The executor ids of all
// registered nodes are snapshotted in registration order; the step driver
// visits them one at a time as their offers arrive.
func (c *Cluster) StartClusterJob(jobType types.ClusterJobType) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	jobs, err := c.jobs.Get()
	if err != nil {
		return false, err
	}
	if jobs.CurrentClusterJob != nil {
		return false, nil
	}

	nodes, err := c.clusterState.Nodes()
	if err != nil {
		return false, err
	}
	job := &types.ClusterJobStatus{
		JobType:            jobType,
		StartedTimestampMs: clock.Millis(c.clock.Now()),
	}
	for _, node := range nodes {
		if node.Executor != nil {
			job.RemainingNodes = append(job.RemainingNodes, node.Executor.ExecutorID)
		}
	}

	if err := c.jobs.SetCurrentJob(job); err != nil {
		return false, err
	}
	metrics.ClusterJobsStarted.WithLabelValues(string(jobType)).Inc()
	return true, nil
}

// AbortClusterJob soft-aborts the current job of the given type: the node
// in flight completes, then the step driver winds the job down. Returns
// false if no such job is current or it is already aborted.
func (c *Cluster) AbortClusterJob(jobType types.ClusterJobType) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	job, err := c.currentClusterJobOfType(jobType)
	if err != nil {
		return false, err
	}
	if job == nil || job.Aborted {
		return false, nil
	}

	aborted := *job
	aborted.Aborted = true
	if err := c.jobs.SetCurrentJob(&aborted); err != nil {
		return false, err
	}
	metrics.ClusterJobsAborted.WithLabelValues(string(jobType)).Inc()
	return true, nil
}

// OnNodeJobStatus folds a node's job-status report into the current
// cluster job. Reports for a different job type are logged and ignored.
func (c *Cluster) OnNodeJobStatus(status types.NodeJobStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	job, err := c.jobs.CurrentJob()
	if err != nil {
		return err
	}
	if job == nil {
		return nil
	}

	if job.JobType != status.JobType {
		logger := log.With("job_type", string(status.JobType))
		logger.Warn().
			Str("expected", string(job.JobType)).
			Msg("got node job status of unexpected type")
		return nil
	}

	logger := log.With("executor_id", status.ExecutorID)
	logger.Info().
		Bool("running", status.Running).
		Str("job_type", string(status.JobType)).
		Msg("got node job status")

	return c.jobs.UpdateNodeStatus(job, status, clock.Millis(c.clock.Now()))
}

// CurrentClusterJob returns the in-flight cluster job, or nil.
func (c *Cluster) CurrentClusterJob() (*types.ClusterJobStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.jobs.CurrentJob()
}

// CurrentClusterJobOfType returns the in-flight job if it has the given
// type, or nil.
func (c *Cluster) CurrentClusterJobOfType(jobType types.ClusterJobType) (*types.ClusterJobStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentClusterJobOfType(jobType)
}

func (c *Cluster) currentClusterJobOfType(jobType types.ClusterJobType) (*types.ClusterJobStatus, error) {
	job, err := c.jobs.CurrentJob()
	if err != nil {
		return nil, err
	}
	if job == nil || job.JobType != jobType {
		return nil, nil
	}
	return job, nil
}

// LastClusterJob returns the most recent terminal job of the given type,
// or nil.
func (c *Cluster) LastClusterJob(jobType types.ClusterJobType) (*types.ClusterJobStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.jobs.LastJob(jobType)
}

// handleClusterJob is the per-offer step driver: it advances the current
// cluster job by at most one step on the offer's node. Nodes are visited
// strictly one at a time, in the order their offers arrive; the snapshot's
// registration order does not decide which node goes next.
func (c *Cluster) handleClusterJob(executorID string, result *TasksForOffer, logger zerolog.Logger) error {
	job, err := c.jobs.CurrentJob()
	if err != nil {
		return err
	}
	if job == nil {
		return nil
	}

	if job.CurrentNode != nil {
		if job.CurrentNode.ExecutorID == executorID {
			// probe the in-flight node for progress
			result.SubmitTasks = append(result.SubmitTasks, types.TaskDetails{Type: types.TaskTypeNodeJobStatus})
			logger.Info().
				Str("job_type", string(job.JobType)).
				Str("executor_id", executorID).
				Msg("inquiring cluster job status")
		}
		return nil
	}

	if job.Aborted {
		return c.jobs.SetCurrentJob(nil)
	}

	if len(job.RemainingNodes) == 0 {
		return c.jobs.FinishJob(job)
	}

	remaining := job.RemainingNodes[:0:0]
	found := false
	for _, id := range job.RemainingNodes {
		if id == executorID {
			found = true
			continue
		}
		remaining = append(remaining, id)
	}
	if !found {
		// this node has already been visited
		return nil
	}

	node, err := c.nodeForExecutorID(executorID)
	if err != nil {
		return err
	}
	if node == nil {
		// executor no longer resolves to a node; skip it
		shortened := *job
		shortened.RemainingNodes = remaining
		return c.jobs.SetCurrentJob(&shortened)
	}

	task := nodeJobTask(executorID, job.JobType)
	result.LaunchTasks = append(result.LaunchTasks, task)

	current := types.NodeJobStatus{
		ExecutorID:         executorID,
		TaskID:             task.TaskID,
		JobType:            job.JobType,
		StartedTimestampMs: clock.Millis(c.clock.Now()),
		Running:            true,
	}
	if err := c.jobs.NextNode(job, current); err != nil {
		return err
	}

	logger.Info().
		Str("job_type", string(job.JobType)).
		Str("ip", node.IP).
		Str("hostname", node.Hostname).
		Msg("starting cluster job step")
	return nil
}
