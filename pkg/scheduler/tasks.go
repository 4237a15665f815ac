package scheduler

import (
	"github.com/cuemby/tessera/pkg/types"
)

// TasksForOffer is the outcome of one offer decision: fresh task launches
// plus payloads submitted to the already-running executor.
type TasksForOffer struct {
	Executor    *types.ExecutorDescriptor
	LaunchTasks []*types.NodeTask
	SubmitTasks []types.TaskDetails
}

// HasAnyTask reports whether the decision produced anything to do.
func (t *TasksForOffer) HasAnyTask() bool {
	return len(t.LaunchTasks) > 0 || len(t.SubmitTasks) > 0
}

// metadataTask builds the small probe task that makes a fresh executor
// report its runtime environment. Its task id equals the executor id.
func metadataTask(executorID, ip string) *types.NodeTask {
	return &types.NodeTask{
		TaskID:     executorID,
		ExecutorID: executorID,
		CPUCores:   0.1,
		MemMb:      16,
		DiskMb:     16,
		Details: types.TaskDetails{
			Type: types.TaskTypeExecutorMetadata,
			ExecutorMetadata: &types.ExecutorMetadataTask{
				ExecutorID: executorID,
				IP:         ip,
			},
		},
	}
}

// nodeJobTask builds the task that starts a maintenance job on one node.
func nodeJobTask(executorID string, jobType types.ClusterJobType) *types.NodeTask {
	return &types.NodeTask{
		TaskID:     executorID + "." + string(jobType),
		ExecutorID: executorID,
		CPUCores:   0.1,
		MemMb:      16,
		DiskMb:     16,
		Details: types.TaskDetails{
			Type:    types.TaskTypeNodeJob,
			NodeJob: &types.NodeJobTask{JobType: jobType},
		},
	}
}
