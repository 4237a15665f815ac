package state

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/tessera/pkg/storage"
	"github.com/cuemby/tessera/pkg/types"
)

func TestClusterStateRoundTrip(t *testing.T) {
	store := storage.NewMemoryStore()
	s := NewClusterState(store)

	node := &types.Node{
		Hostname: "cass-1.dc1",
		IP:       "10.0.0.1",
		Seed:     true,
		JmxConnect: &types.JmxConnect{
			IP:      "127.0.0.1",
			JmxPort: 7199,
		},
		Executor: &types.ExecutorDescriptor{
			ExecutorID: "tessera.node.0.executor",
			Source:     "tessera",
			CPUCores:   0.1,
			MemMb:      16,
			DiskMb:     16,
			Command:    "$(pwd)/jre*/bin/java",
			Env:        map[string]string{"JAVA_OPTS": "-Xms256m -Xmx256m"},
		},
		MetadataTask: &types.NodeTask{
			TaskID:     "tessera.node.0.executor",
			ExecutorID: "tessera.node.0.executor",
			CPUCores:   0.1,
			MemMb:      16,
			DiskMb:     16,
			Details: types.TaskDetails{
				Type: types.TaskTypeExecutorMetadata,
				ExecutorMetadata: &types.ExecutorMetadataTask{
					ExecutorID: "tessera.node.0.executor",
					IP:         "10.0.0.1",
				},
			},
		},
	}
	require.NoError(t, s.AddOrSetNode(node))

	// Re-open over the same backend: the decoded state must equal what was
	// written.
	reopened := NewClusterState(store)
	nodes, err := reopened.Nodes()
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, node, nodes[0])
}

func TestClusterStateDefaults(t *testing.T) {
	s := NewClusterState(storage.NewMemoryStore())

	nodes, err := s.Nodes()
	require.NoError(t, err)
	assert.Empty(t, nodes)

	counts, err := s.NodeCounts()
	require.NoError(t, err)
	assert.Equal(t, types.NodeCounts{}, counts)

	last, err := s.LastServerLaunchTimestamp()
	require.NoError(t, err)
	assert.Zero(t, last)
}

func TestClusterStateCorrupt(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(KeyClusterState, []byte("{not json")))

	_, err := NewClusterState(store).Nodes()
	assert.True(t, errors.Is(err, ErrStateCorrupt))
}

func TestClusterStateAddOrSetNodeReplaces(t *testing.T) {
	s := NewClusterState(storage.NewMemoryStore())

	require.NoError(t, s.AddOrSetNode(&types.Node{Hostname: "h1", IP: "10.0.0.1"}))
	require.NoError(t, s.AddOrSetNode(&types.Node{Hostname: "h2", IP: "10.0.0.2"}))
	require.NoError(t, s.AddOrSetNode(&types.Node{Hostname: "h1", IP: "10.0.0.1", Seed: true}))

	nodes, err := s.Nodes()
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.True(t, nodes[0].Seed, "h1 entry should have been replaced in place")
	assert.Equal(t, "h2", nodes[1].Hostname)
}

func TestClusterStateNodeCounts(t *testing.T) {
	s := NewClusterState(storage.NewMemoryStore())
	require.NoError(t, s.AddOrSetNode(&types.Node{Hostname: "h1", Seed: true}))
	require.NoError(t, s.AddOrSetNode(&types.Node{Hostname: "h2", Seed: true}))
	require.NoError(t, s.AddOrSetNode(&types.Node{Hostname: "h3"}))

	counts, err := s.NodeCounts()
	require.NoError(t, err)
	assert.Equal(t, types.NodeCounts{NodeCount: 3, SeedCount: 2}, counts)
}

func TestExecutorMetadataLifecycle(t *testing.T) {
	s := NewClusterState(storage.NewMemoryStore())

	require.NoError(t, s.AddExecutorMetadata(types.ExecutorMetadata{ExecutorID: "e1", IP: "10.0.0.1"}))
	require.NoError(t, s.AddExecutorMetadata(types.ExecutorMetadata{ExecutorID: "e2", IP: "10.0.0.2"}))

	m, err := s.MetadataFor("e1")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "10.0.0.1", m.IP)

	require.NoError(t, s.RemoveExecutorMetadata("e1"))
	m, err = s.MetadataFor("e1")
	require.NoError(t, err)
	assert.Nil(t, m)

	remaining, err := s.ExecutorMetadata()
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "e2", remaining[0].ExecutorID)
}

func TestExecutorCounter(t *testing.T) {
	store := storage.NewMemoryStore()
	counter := NewExecutorCounter(store)

	for want := int64(0); want < 3; want++ {
		got, err := counter.GetAndIncrement()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// The increment must be durable, not cached.
	reopened := NewExecutorCounter(store)
	got, err := reopened.Get()
	require.NoError(t, err)
	assert.Equal(t, int64(3), got)
}

func TestHealthCheckHistoryLast(t *testing.T) {
	s := NewHealthCheckHistory(storage.NewMemoryStore())

	last, err := s.Last("e1")
	require.NoError(t, err)
	assert.Nil(t, last)

	require.NoError(t, s.Record(types.HealthCheckHistoryEntry{
		ExecutorID:  "e1",
		TimestampMs: 1000,
		Details:     types.HealthCheckDetails{Healthy: true},
	}))
	require.NoError(t, s.Record(types.HealthCheckHistoryEntry{
		ExecutorID:  "e2",
		TimestampMs: 1500,
		Details:     types.HealthCheckDetails{Healthy: false, Msg: "timeout"},
	}))
	require.NoError(t, s.Record(types.HealthCheckHistoryEntry{
		ExecutorID:  "e1",
		TimestampMs: 2000,
		Details: types.HealthCheckDetails{
			Healthy: true,
			Info:    &types.NodeInfo{Joined: true, OperationMode: "NORMAL"},
		},
	}))

	last, err = s.Last("e1")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, int64(2000), last.TimestampMs)
	require.NotNil(t, last.Details.Info)
	assert.True(t, last.Details.Info.Joined)

	latest, err := s.MostRecentPerExecutor()
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, int64(2000), latest["e1"].TimestampMs)
	assert.Equal(t, int64(1500), latest["e2"].TimestampMs)
}

func TestConfigurationDefaultUntilSet(t *testing.T) {
	store := storage.NewMemoryStore()
	bootstrap := &types.FrameworkConfiguration{
		FrameworkName: "tessera",
		NumberOfNodes: 3,
		NumberOfSeeds: 2,
	}
	s := NewConfiguration(store, bootstrap)

	cfg, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.NumberOfNodes)

	cfg.NumberOfNodes = 5
	require.NoError(t, s.Set(cfg))

	// A store over the same backend with a different bootstrap sees the
	// persisted value, not its default.
	other := NewConfiguration(store, &types.FrameworkConfiguration{NumberOfNodes: 1})
	got, err := other.Get()
	require.NoError(t, err)
	assert.Equal(t, 5, got.NumberOfNodes)
}

func TestJobsUpdateNodeStatus(t *testing.T) {
	s := NewJobs(storage.NewMemoryStore())

	job := &types.ClusterJobStatus{
		JobType:            types.ClusterJobRepair,
		StartedTimestampMs: 100,
		RemainingNodes:     []string{"e2", "e3"},
		CurrentNode: &types.NodeJobStatus{
			ExecutorID:         "e1",
			TaskID:             "e1.REPAIR",
			JobType:            types.ClusterJobRepair,
			StartedTimestampMs: 100,
			Running:            true,
		},
	}
	require.NoError(t, s.SetCurrentJob(job))

	// A running report replaces the current node's status.
	require.NoError(t, s.UpdateNodeStatus(job, types.NodeJobStatus{
		ExecutorID:         "e1",
		TaskID:             "e1.REPAIR",
		JobType:            types.ClusterJobRepair,
		StartedTimestampMs: 100,
		Running:            true,
	}, 200))
	current, err := s.CurrentJob()
	require.NoError(t, err)
	require.NotNil(t, current.CurrentNode)
	assert.True(t, current.CurrentNode.Running)

	// A report for a different executor is ignored.
	require.NoError(t, s.UpdateNodeStatus(current, types.NodeJobStatus{
		ExecutorID: "e9",
		Running:    false,
	}, 250))
	current, err = s.CurrentJob()
	require.NoError(t, err)
	require.NotNil(t, current.CurrentNode)

	// A terminal report moves the node to the completed list.
	require.NoError(t, s.UpdateNodeStatus(current, types.NodeJobStatus{
		ExecutorID: "e1",
		TaskID:     "e1.REPAIR",
		JobType:    types.ClusterJobRepair,
		Running:    false,
	}, 300))
	current, err = s.CurrentJob()
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Nil(t, current.CurrentNode)
	require.Len(t, current.CompletedNodes, 1)
	assert.Equal(t, "e1", current.CompletedNodes[0].ExecutorID)
	assert.Equal(t, []string{"e2", "e3"}, current.RemainingNodes)
}

func TestJobsFinishOnLastNode(t *testing.T) {
	s := NewJobs(storage.NewMemoryStore())

	prior := types.ClusterJobStatus{
		JobType:             types.ClusterJobRepair,
		StartedTimestampMs:  1,
		FinishedTimestampMs: 2,
	}
	require.NoError(t, s.FinishJob(&prior))

	job := &types.ClusterJobStatus{
		JobType:            types.ClusterJobRepair,
		StartedTimestampMs: 100,
		CurrentNode: &types.NodeJobStatus{
			ExecutorID: "e1",
			TaskID:     "e1.REPAIR",
			JobType:    types.ClusterJobRepair,
			Running:    true,
		},
	}
	require.NoError(t, s.SetCurrentJob(job))

	require.NoError(t, s.UpdateNodeStatus(job, types.NodeJobStatus{
		ExecutorID: "e1",
		TaskID:     "e1.REPAIR",
		JobType:    types.ClusterJobRepair,
		Running:    false,
	}, 500))

	current, err := s.CurrentJob()
	require.NoError(t, err)
	assert.Nil(t, current, "finished job must leave no current job")

	last, err := s.LastJob(types.ClusterJobRepair)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, int64(500), last.FinishedTimestampMs)
	assert.Len(t, last.CompletedNodes, 1)

	// The newer repair displaced the prior one.
	jobs, err := s.Get()
	require.NoError(t, err)
	count := 0
	for _, j := range jobs.LastClusterJobs {
		if j.JobType == types.ClusterJobRepair {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestJobsFinishKeepsOtherTypes(t *testing.T) {
	s := NewJobs(storage.NewMemoryStore())

	cleanup := types.ClusterJobStatus{JobType: types.ClusterJobCleanup, FinishedTimestampMs: 10}
	require.NoError(t, s.FinishJob(&cleanup))

	repair := types.ClusterJobStatus{JobType: types.ClusterJobRepair, FinishedTimestampMs: 20}
	require.NoError(t, s.FinishJob(&repair))

	last, err := s.LastJob(types.ClusterJobCleanup)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, int64(10), last.FinishedTimestampMs)
}

func TestJobsRemoveTaskForCurrentNode(t *testing.T) {
	s := NewJobs(storage.NewMemoryStore())

	job := &types.ClusterJobStatus{
		JobType:        types.ClusterJobCleanup,
		RemainingNodes: []string{"e2"},
		CurrentNode: &types.NodeJobStatus{
			ExecutorID: "e1",
			TaskID:     "e1.CLEANUP",
			JobType:    types.ClusterJobCleanup,
			Running:    true,
		},
	}
	require.NoError(t, s.SetCurrentJob(job))

	require.NoError(t, s.RemoveTaskForCurrentNode(types.TaskStatus{
		TaskID:  "e1.CLEANUP",
		State:   "TASK_LOST",
		Reason:  "REASON_EXECUTOR_TERMINATED",
		Source:  "SOURCE_SLAVE",
		Healthy: false,
		Message: "executor gone",
	}, job))

	current, err := s.CurrentJob()
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Nil(t, current.CurrentNode)
	require.Len(t, current.CompletedNodes, 1)
	failed := current.CompletedNodes[0]
	assert.True(t, failed.Failed)
	assert.Equal(t,
		"TaskStatus:TASK_LOST, reason:REASON_EXECUTOR_TERMINATED, source:SOURCE_SLAVE, healthy:false, message:executor gone",
		failed.FailureMessage)
}

func TestJobsNextNode(t *testing.T) {
	s := NewJobs(storage.NewMemoryStore())

	job := &types.ClusterJobStatus{
		JobType:        types.ClusterJobRepair,
		RemainingNodes: []string{"e1", "e2", "e3"},
	}
	require.NoError(t, s.SetCurrentJob(job))

	require.NoError(t, s.NextNode(job, types.NodeJobStatus{
		ExecutorID: "e2",
		TaskID:     "e2.REPAIR",
		JobType:    types.ClusterJobRepair,
		Running:    true,
	}))

	current, err := s.CurrentJob()
	require.NoError(t, err)
	require.NotNil(t, current.CurrentNode)
	assert.Equal(t, "e2", current.CurrentNode.ExecutorID)
	assert.Equal(t, []string{"e1", "e3"}, current.RemainingNodes)
}
