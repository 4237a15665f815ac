package scheduler

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/cuemby/tessera/pkg/clock"
	"github.com/cuemby/tessera/pkg/log"
	"github.com/cuemby/tessera/pkg/metrics"
	"github.com/cuemby/tessera/pkg/ports"
	"github.com/cuemby/tessera/pkg/state"
	"github.com/cuemby/tessera/pkg/types"
)

var (
	// ErrHostUnresolvable is returned when an offer's hostname cannot be
	// resolved during node registration. Callers log it and drop the offer.
	ErrHostUnresolvable = errors.New("host unresolvable")

	// ErrInvalidConfiguration is returned when an administrative
	// configuration change would violate a cluster invariant. The previous
	// configuration is retained.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// Cluster is the scheduler decision core. It is driven one call at a time
// by the offer transport and the task-status stream; a single mutex
// serializes all public operations. The persisted stores are the single
// source of truth, so every mutation is written through before a method
// returns.
type Cluster struct {
	mu sync.Mutex

	clock             clock.Clock
	httpServerBaseURL string

	counter            *state.ExecutorCounter
	clusterState       *state.ClusterState
	healthCheckHistory *state.HealthCheckHistory
	configuration      *state.Configuration
	jobs               *state.Jobs
}

// NewCluster wires the decision core to its collaborators.
func NewCluster(
	clk clock.Clock,
	httpServerBaseURL string,
	counter *state.ExecutorCounter,
	clusterState *state.ClusterState,
	healthCheckHistory *state.HealthCheckHistory,
	jobs *state.Jobs,
	configuration *state.Configuration,
) *Cluster {
	return &Cluster{
		clock:              clk,
		httpServerBaseURL:  httpServerBaseURL,
		counter:            counter,
		clusterState:       clusterState,
		healthCheckHistory: healthCheckHistory,
		jobs:               jobs,
		configuration:      configuration,
	}
}

// TasksForOffer is the per-offer decision entry point. It advances the
// offer's node through its bring-up state machine and returns the tasks to
// launch or submit, or nil when the offer yields nothing to do.
func (c *Cluster) TasksForOffer(offer *types.Offer) (*TasksForOffer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	metrics.OffersEvaluated.Inc()
	logger := log.WithOffer(offer.ID, offer.Hostname)

	cfg, err := c.configuration.Get()
	if err != nil {
		return nil, err
	}

	node, err := c.nodeForHostname(offer.Hostname)
	if err != nil {
		return nil, err
	}
	if node == nil {
		counts, err := c.clusterState.NodeCounts()
		if err != nil {
			return nil, err
		}
		if counts.NodeCount >= cfg.NumberOfNodes {
			// cluster is already at its configured size
			return nil, nil
		}
		node, err = c.buildNode(offer, counts.SeedCount < cfg.NumberOfSeeds, cfg)
		if err != nil {
			return nil, err
		}
		if err := c.clusterState.AddOrSetNode(node); err != nil {
			return nil, err
		}
		metrics.NodesRegistered.Set(float64(counts.NodeCount + 1))
		logger.Info().Bool("seed", node.Seed).Str("ip", node.IP).Msg("registered node")
	}

	if node.Executor == nil {
		executorID, err := c.executorIDForOffer(offer, cfg)
		if err != nil {
			return nil, err
		}
		node.Executor = c.newExecutor(executorID, cfg)
	}

	result := &TasksForOffer{Executor: node.Executor}
	executorID := node.Executor.ExecutorID

	if node.MetadataTask == nil {
		node.MetadataTask = metadataTask(executorID, node.IP)
		result.LaunchTasks = append(result.LaunchTasks, node.MetadataTask)
	} else {
		metadata, err := c.clusterState.MetadataFor(executorID)
		if err != nil {
			return nil, err
		}
		if metadata != nil {
			if node.ServerTask == nil {
				launched, err := c.maybeLaunchServer(offer, node, metadata, cfg, result, logger)
				if err != nil {
					return nil, err
				}
				if !launched && len(result.LaunchTasks) == 0 {
					return nil, nil
				}
			} else {
				due, err := c.shouldRunHealthCheck(executorID, cfg)
				if err != nil {
					return nil, err
				}
				if due {
					result.SubmitTasks = append(result.SubmitTasks, types.TaskDetails{Type: types.TaskTypeHealthCheck})
				}
				if err := c.handleClusterJob(executorID, result, logger); err != nil {
					return nil, err
				}
			}
		}
	}

	if !result.HasAnyTask() {
		return nil, nil
	}

	if err := c.clusterState.AddOrSetNode(node); err != nil {
		return nil, err
	}

	metrics.OffersSatisfied.Inc()
	for _, task := range result.LaunchTasks {
		metrics.TasksLaunched.WithLabelValues(string(task.Details.Type)).Inc()
	}
	for _, details := range result.SubmitTasks {
		metrics.TasksSubmitted.WithLabelValues(string(details.Type)).Inc()
	}
	return result, nil
}

// nodeForHostname returns the registered node for a hostname, or nil.
func (c *Cluster) nodeForHostname(hostname string) (*types.Node, error) {
	nodes, err := c.clusterState.Nodes()
	if err != nil {
		return nil, err
	}
	for _, node := range nodes {
		if node.Hostname == hostname {
			return node, nil
		}
	}
	return nil, nil
}

// NodeForHostname returns the registered node for a hostname, or nil.
func (c *Cluster) NodeForHostname(hostname string) (*types.Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nodeForHostname(hostname)
}

// NodeForExecutorID returns the node bound to the executor, or nil.
func (c *Cluster) NodeForExecutorID(executorID string) (*types.Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nodeForExecutorID(executorID)
}

func (c *Cluster) nodeForExecutorID(executorID string) (*types.Node, error) {
	nodes, err := c.clusterState.Nodes()
	if err != nil {
		return nil, err
	}
	for _, node := range nodes {
		if node.Executor != nil && node.Executor.ExecutorID == executorID {
			return node, nil
		}
	}
	return nil, nil
}

// ExecutorIDForTask resolves a task id to the executor that owns it.
func (c *Cluster) ExecutorIDForTask(taskID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	nodes, err := c.clusterState.Nodes()
	if err != nil {
		return "", err
	}
	for _, node := range nodes {
		if node.Executor == nil {
			continue
		}
		if node.MetadataTask != nil && node.MetadataTask.TaskID == taskID {
			return node.Executor.ExecutorID, nil
		}
		if node.ServerTask != nil && node.ServerTask.TaskID == taskID {
			return node.Executor.ExecutorID, nil
		}
	}
	return "", nil
}

// SeedNodeIPs returns the IPs of all seed nodes in registration order.
func (c *Cluster) SeedNodeIPs() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seedNodeIPs()
}

func (c *Cluster) seedNodeIPs() ([]string, error) {
	nodes, err := c.clusterState.Nodes()
	if err != nil {
		return nil, err
	}
	var ips []string
	for _, node := range nodes {
		if node.Seed {
			ips = append(ips, node.IP)
		}
	}
	return ips, nil
}

// buildNode registers a new node for the offer's host. The hostname is
// resolved exactly once; loopback hosts get an OS-assigned free JMX port,
// anything else uses the configured one.
func (c *Cluster) buildNode(offer *types.Offer, seed bool, cfg *types.FrameworkConfiguration) (*types.Node, error) {
	ips, err := net.LookupIP(offer.Hostname)
	if err != nil || len(ips) == 0 {
		return nil, fmt.Errorf("%w: %s: %v", ErrHostUnresolvable, offer.Hostname, err)
	}
	ip := ips[0]

	jmxPort, err := ports.PortFor(cfg, ports.PortJmx)
	if err != nil {
		return nil, err
	}
	if ip.IsLoopback() {
		jmxPort, err = freePort()
		if err != nil {
			return nil, err
		}
	}

	return &types.Node{
		Hostname: offer.Hostname,
		IP:       ip.String(),
		Seed:     seed,
		JmxConnect: &types.JmxConnect{
			IP:      "127.0.0.1",
			JmxPort: jmxPort,
		},
	}, nil
}

// freePort asks the OS for a currently free TCP port. The port is released
// before returning; another process could grab it before the executor
// binds it. Known limitation.
func freePort() (int64, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("allocate jmx port: %w", err)
	}
	defer l.Close()
	return int64(l.Addr().(*net.TCPAddr).Port), nil
}

// executorIDForOffer reuses the executor id of any node already bound on
// the offer's host, or mints a fresh one from the persisted counter.
func (c *Cluster) executorIDForOffer(offer *types.Offer, cfg *types.FrameworkConfiguration) (string, error) {
	nodes, err := c.clusterState.Nodes()
	if err != nil {
		return "", err
	}
	for _, node := range nodes {
		if node.Hostname == offer.Hostname && node.Executor != nil {
			return node.Executor.ExecutorID, nil
		}
	}
	n, err := c.counter.GetAndIncrement()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s.node.%d.executor", cfg.FrameworkName, n), nil
}

// AddExecutorMetadata records the environment a fresh executor reported
// after its metadata probe completed.
func (c *Cluster) AddExecutorMetadata(metadata types.ExecutorMetadata) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clusterState.AddExecutorMetadata(metadata)
}

// RemoveTask reacts to a terminal task status. Losing a server task clears
// it; losing a metadata task also invalidates the server task and the
// executor's reported metadata. If the task was the current cluster-job
// node, that node is failed out of the job.
func (c *Cluster) RemoveTask(taskID string, status types.TaskStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	nodes, err := c.clusterState.Nodes()
	if err != nil {
		return err
	}
	changed := false
	for _, node := range nodes {
		switch {
		case node.MetadataTask != nil && node.MetadataTask.TaskID == taskID:
			// metadata loss invalidates the server task as well
			if err := c.clusterState.RemoveExecutorMetadata(node.MetadataTask.ExecutorID); err != nil {
				return err
			}
			node.MetadataTask = nil
			node.ServerTask = nil
			changed = true
		case node.ServerTask != nil && node.ServerTask.TaskID == taskID:
			node.ServerTask = nil
			changed = true
		}
	}
	if changed {
		if err := c.clusterState.SetNodes(nodes); err != nil {
			return err
		}
	}

	job, err := c.jobs.CurrentJob()
	if err != nil {
		return err
	}
	if job != nil && job.CurrentNode != nil && job.CurrentNode.TaskID == taskID {
		return c.jobs.RemoveTaskForCurrentNode(status, job)
	}
	return nil
}

// RemoveExecutor reacts to the loss of an entire executor: both task
// fields are cleared on every node bound to it and its reported metadata
// is dropped.
func (c *Cluster) RemoveExecutor(executorID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	nodes, err := c.clusterState.Nodes()
	if err != nil {
		return err
	}
	for _, node := range nodes {
		if node.Executor != nil && node.Executor.ExecutorID == executorID {
			node.MetadataTask = nil
			node.ServerTask = nil
		}
	}
	if err := c.clusterState.SetNodes(nodes); err != nil {
		return err
	}
	return c.clusterState.RemoveExecutorMetadata(executorID)
}

// LastHealthCheck returns the most recent recorded health entry for the
// executor, or nil.
func (c *Cluster) LastHealthCheck(executorID string) (*types.HealthCheckHistoryEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.healthCheckHistory.Last(executorID)
}

// RecordHealthCheck appends a health-check result. Unhealthy results are
// logged but do not remove the node's server task.
func (c *Cluster) RecordHealthCheck(executorID string, details types.HealthCheckDetails) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !details.Healthy {
		logger := log.With("executor_id", executorID)
		logger.Info().
			Str("msg", details.Msg).
			Msg("health check result unhealthy")
	}
	metrics.HealthChecksRecorded.WithLabelValues(fmt.Sprintf("%t", details.Healthy)).Inc()

	return c.healthCheckHistory.Record(types.HealthCheckHistoryEntry{
		ExecutorID:  executorID,
		TimestampMs: clock.Millis(c.clock.Now()),
		Details:     details,
	})
}

// shouldRunHealthCheck reports whether a periodic health check is due for
// the executor.
func (c *Cluster) shouldRunHealthCheck(executorID string, cfg *types.FrameworkConfiguration) (bool, error) {
	if cfg.HealthCheckIntervalSeconds <= 0 {
		return false, nil
	}
	last, err := c.healthCheckHistory.Last(executorID)
	if err != nil {
		return false, err
	}
	if last == nil {
		return true, nil
	}
	elapsed := clock.Millis(c.clock.Now()) - last.TimestampMs
	return elapsed > cfg.HealthCheckIntervalSeconds*1000, nil
}

// UpdateNodeCount administratively scales the configured node count. A
// count below the registered node total or below the seed requirement is
// rejected with a log and the previous value is retained. The resulting
// (possibly unchanged) count is returned.
func (c *Cluster) UpdateNodeCount(nodeCount int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cfg, err := c.configuration.Get()
	if err != nil {
		return 0, err
	}
	counts, err := c.clusterState.NodeCounts()
	if err != nil {
		return 0, err
	}

	if nodeCount < counts.NodeCount || nodeCount < cfg.NumberOfSeeds {
		logger := log.WithComponent("scheduler")
		logger.Info().
			Int("requested", nodeCount).
			Int("registered", counts.NodeCount).
			Int("seeds", cfg.NumberOfSeeds).
			Err(ErrInvalidConfiguration).
			Msg("cannot update number of nodes")
		return cfg.NumberOfNodes, nil
	}

	cfg.NumberOfNodes = nodeCount
	if err := c.configuration.Set(cfg); err != nil {
		return 0, err
	}
	return nodeCount, nil
}
