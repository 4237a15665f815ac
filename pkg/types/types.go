package types

// FrameworkConfiguration is the persistent, administratively mutable
// configuration of a Tessera framework instance. It is stored as a single
// blob and read on every scheduling decision.
type FrameworkConfiguration struct {
	FrameworkID      string
	FrameworkName    string
	CassandraVersion string

	NumberOfNodes int
	NumberOfSeeds int

	CPUCores float64
	MemMb    int64
	DiskMb   int64

	HealthCheckIntervalSeconds int64
	BootstrapGraceTimeSeconds  int64

	// PortMappings holds sparse overrides of symbolic port name to numeric
	// port. Names absent here fall back to the registry defaults.
	PortMappings map[string]int64
}

// Node is one Cassandra host managed by the framework, keyed by hostname.
// The optional fields are filled monotonically as the node advances through
// bring-up: executor, then metadata task, then server task.
type Node struct {
	Hostname   string
	IP         string
	Seed       bool
	JmxConnect *JmxConnect

	Executor     *ExecutorDescriptor
	MetadataTask *NodeTask
	ServerTask   *NodeTask
}

// JmxConnect describes the management endpoint of a Cassandra process.
type JmxConnect struct {
	IP      string
	JmxPort int64
}

// ExecutorDescriptor describes the long-lived per-host executor process
// that launches and supervises node tasks.
type ExecutorDescriptor struct {
	ExecutorID  string
	Source      string
	CPUCores    float64
	MemMb       int64
	DiskMb      int64
	Command     string
	CommandArgs []string
	Env         map[string]string
	Resources   []ResourceURI
}

// ResourceURI is a launch artifact fetched by the cluster manager before
// the executor starts. Extract marks archives that are unpacked in place.
type ResourceURI struct {
	URL     string
	Extract bool
}

// NodeTask is a unit of work launched on an executor: resource amounts,
// reserved ports, and a typed payload.
type NodeTask struct {
	TaskID     string
	ExecutorID string
	CPUCores   float64
	MemMb      int64
	DiskMb     int64
	Ports      []int64
	Details    TaskDetails
}

// TaskType tags the payload variant carried by TaskDetails.
type TaskType string

const (
	TaskTypeExecutorMetadata   TaskType = "EXECUTOR_METADATA"
	TaskTypeCassandraServerRun TaskType = "CASSANDRA_SERVER_RUN"
	TaskTypeHealthCheck        TaskType = "HEALTH_CHECK"
	TaskTypeNodeJob            TaskType = "NODE_JOB"
	TaskTypeNodeJobStatus      TaskType = "NODE_JOB_STATUS"
)

// TaskDetails is a tagged sum over the task payload variants. Exactly the
// pointer matching Type is set; HEALTH_CHECK and NODE_JOB_STATUS carry no
// payload beyond the tag.
type TaskDetails struct {
	Type               TaskType
	ExecutorMetadata   *ExecutorMetadataTask
	CassandraServerRun *CassandraServerRunTask
	NodeJob            *NodeJobTask
}

// ExecutorMetadataTask asks a fresh executor to report its runtime
// environment.
type ExecutorMetadataTask struct {
	ExecutorID string
	IP         string
}

// CassandraServerRunTask carries everything the executor needs to start
// the Cassandra server process.
type CassandraServerRunTask struct {
	Command []string
	Version string
	Config  map[string]string
	Env     map[string]string
	Jmx     *JmxConnect
}

// NodeJobTask starts a maintenance job (repair, cleanup, ...) on one node.
type NodeJobTask struct {
	JobType ClusterJobType
}

// ExecutorMetadata is the environment an executor reported after its
// metadata probe completed. Present iff the probe has successfully run.
type ExecutorMetadata struct {
	ExecutorID string
	IP         string
}

// HealthCheckHistoryEntry is one recorded health-check result for an
// executor. Entries are append-only.
type HealthCheckHistoryEntry struct {
	ExecutorID  string
	TimestampMs int64
	Details     HealthCheckDetails
}

// HealthCheckDetails is the outcome of a single health check.
type HealthCheckDetails struct {
	Healthy bool
	Msg     string
	Info    *NodeInfo
}

// NodeInfo is the node-local view reported by a healthy Cassandra process.
type NodeInfo struct {
	ClusterName   string
	Endpoint      string
	Joined        bool
	OperationMode string
}

// ClusterJobType identifies a cluster-wide maintenance operation.
type ClusterJobType string

const (
	ClusterJobRepair  ClusterJobType = "REPAIR"
	ClusterJobCleanup ClusterJobType = "CLEANUP"
)

// NodeJobStatus is the per-node progress of a cluster job.
type NodeJobStatus struct {
	ExecutorID         string
	TaskID             string
	JobType            ClusterJobType
	StartedTimestampMs int64
	Running            bool
	Failed             bool
	FailureMessage     string
}

// ClusterJobStatus tracks one cluster job across all nodes. RemainingNodes
// holds executor ids yet to be visited, in node registration order; at most
// one node is current at any time.
type ClusterJobStatus struct {
	JobType             ClusterJobType
	StartedTimestampMs  int64
	FinishedTimestampMs int64
	Aborted             bool
	RemainingNodes      []string
	CurrentNode         *NodeJobStatus
	CompletedNodes      []NodeJobStatus
}

// ClusterJobs is the persistent job state: the optional in-flight job plus
// the most recent terminal job per type.
type ClusterJobs struct {
	CurrentClusterJob *ClusterJobStatus
	LastClusterJobs   []ClusterJobStatus
}

// ClusterState is the persistent cluster topology blob.
type ClusterState struct {
	Nodes                     []*Node
	ExecutorMetadata          []ExecutorMetadata
	LastServerLaunchTimestamp int64
}

// NodeCounts summarizes the registered topology.
type NodeCounts struct {
	NodeCount int
	SeedCount int
}

// Offer is an advertisement of resources available on one host, delivered
// by the cluster manager.
type Offer struct {
	ID        string
	Hostname  string
	Resources []Resource
}

// Resource is one named resource in an offer: a scalar amount or a set of
// closed port ranges.
type Resource struct {
	Name   string
	Scalar float64
	Ranges []PortRange
}

// PortRange is a closed range of ports.
type PortRange struct {
	Begin int64
	End   int64
}

// Scalar returns the scalar value of the named resource, or 0 if the offer
// does not carry it.
func (o *Offer) Scalar(name string) float64 {
	for _, r := range o.Resources {
		if r.Name == name {
			return r.Scalar
		}
	}
	return 0
}

// Ports returns the set of individual ports covered by the named range
// resource.
func (o *Offer) Ports(name string) map[int64]bool {
	ports := make(map[int64]bool)
	for _, r := range o.Resources {
		if r.Name != name {
			continue
		}
		for _, rng := range r.Ranges {
			for p := rng.Begin; p <= rng.End; p++ {
				ports[p] = true
			}
		}
	}
	return ports
}

// TaskStatus is a task state notification from the cluster manager,
// delivered at-least-once.
type TaskStatus struct {
	TaskID  string
	State   string
	Reason  string
	Source  string
	Healthy bool
	Message string
}
