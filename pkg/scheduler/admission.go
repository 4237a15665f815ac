package scheduler

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/cuemby/tessera/pkg/clock"
	"github.com/cuemby/tessera/pkg/ports"
	"github.com/cuemby/tessera/pkg/types"
)

// operationModeNormal is Cassandra's steady-state, fully-joined condition.
const operationModeNormal = "NORMAL"

// maybeLaunchServer applies cluster-level admission and the resource
// matcher before adding the server task to the result. A park of any kind
// leaves the launch-throttle timestamp untouched; only a selected launch
// stamps it.
func (c *Cluster) maybeLaunchServer(
	offer *types.Offer,
	node *types.Node,
	metadata *types.ExecutorMetadata,
	cfg *types.FrameworkConfiguration,
	result *TasksForOffer,
	logger zerolog.Logger,
) (bool, error) {
	if !node.Seed {
		// Seed-first: until enough executors have reported metadata to
		// satisfy the seed requirement, only seed nodes may proceed.
		reported, err := c.clusterState.ExecutorMetadata()
		if err != nil {
			return false, err
		}
		if len(reported) < cfg.NumberOfSeeds {
			logger.Debug().Msg("cannot launch non-seed node (seed node requirement not fulfilled)")
			return false, nil
		}
	}

	launchable, err := c.canLaunchServerTask(cfg)
	if err != nil {
		return false, err
	}
	if !launchable {
		logger.Debug().Msg("cannot launch server (timed)")
		return false, nil
	}

	if !node.Seed {
		ok, err := c.topologyQuiescent(logger)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}

	shortfalls := hasResources(offer, cfg.CPUCores, cfg.MemMb, cfg.DiskMb, ports.AllPorts(cfg))
	if len(shortfalls) > 0 {
		logger.Info().
			Str("details", "['"+strings.Join(shortfalls, "','")+"']").
			Msg("insufficient resources in offer")
		return false, nil
	}

	task, err := c.serverTask(node.Executor.ExecutorID, node.Executor.ExecutorID+".server", metadata, node, cfg)
	if err != nil {
		return false, err
	}
	node.ServerTask = task
	result.LaunchTasks = append(result.LaunchTasks, task)

	if err := c.clusterState.UpdateLastServerLaunchTimestamp(clock.Millis(c.clock.Now())); err != nil {
		return false, err
	}
	return true, nil
}

// canLaunchServerTask enforces the launch throttle: one server launch per
// throttle window.
func (c *Cluster) canLaunchServerTask(cfg *types.FrameworkConfiguration) (bool, error) {
	next, err := c.nextPossibleServerLaunchTimestamp(cfg)
	if err != nil {
		return false, err
	}
	return clock.Millis(c.clock.Now()) > next, nil
}

// NextPossibleServerLaunchTimestamp returns the millisecond instant after
// which the next server task may launch.
func (c *Cluster) NextPossibleServerLaunchTimestamp() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cfg, err := c.configuration.Get()
	if err != nil {
		return 0, err
	}
	return c.nextPossibleServerLaunchTimestamp(cfg)
}

func (c *Cluster) nextPossibleServerLaunchTimestamp(cfg *types.FrameworkConfiguration) (int64, error) {
	last, err := c.clusterState.LastServerLaunchTimestamp()
	if err != nil {
		return 0, err
	}
	seconds := cfg.BootstrapGraceTimeSeconds
	if cfg.HealthCheckIntervalSeconds > seconds {
		seconds = cfg.HealthCheckIntervalSeconds
	}
	return last + seconds*1000, nil
}

// topologyQuiescent gates non-seed launches on the cluster's topology
// being stable: at least one seed must be serving normally, and no serving
// node may be in a transitional state (joining, leaving, moving).
func (c *Cluster) topologyQuiescent(logger zerolog.Logger) (bool, error) {
	nodes, err := c.clusterState.Nodes()
	if err != nil {
		return false, err
	}

	anySeedRunning := false
	anyNodeInfluencingTopology := false
	for _, node := range nodes {
		if node.ServerTask == nil || node.Executor == nil {
			continue
		}
		lastHC, err := c.healthCheckHistory.Last(node.Executor.ExecutorID)
		if err != nil {
			return false, err
		}
		if lastHC == nil || lastHC.Details.Info == nil {
			continue
		}
		details := lastHC.Details
		if node.Seed && details.Healthy && details.Info.Joined && details.Info.OperationMode == operationModeNormal {
			anySeedRunning = true
		}
		if details.Healthy && (!details.Info.Joined || details.Info.OperationMode != operationModeNormal) {
			logger.Debug().
				Str("operation_mode", details.Info.OperationMode).
				Str("node", node.Hostname).
				Msg("cannot start server task because of node operation mode")
			anyNodeInfluencingTopology = true
		}
	}

	if !anySeedRunning {
		logger.Debug().Msg("cannot start server task because no seed node is running")
		return false, nil
	}
	return !anyNodeInfluencingTopology, nil
}
