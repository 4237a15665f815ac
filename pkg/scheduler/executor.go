package scheduler

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/cuemby/tessera/pkg/ports"
	"github.com/cuemby/tessera/pkg/types"
)

// executorEnv is the fixed environment of every node executor.
var executorEnv = map[string]string{
	"JAVA_OPTS": "-Xms256m -Xmx256m",
}

// osName returns the platform tag used to pick the JRE artifact. OS_NAME
// overrides auto-detection.
func osName() string {
	if name := os.Getenv("OS_NAME"); name != "" {
		return name
	}
	if runtime.GOOS == "darwin" {
		return "macosx"
	}
	return runtime.GOOS
}

// newExecutor builds the descriptor for a per-host executor: the JRE, the
// Cassandra distribution and the executor bundle as launch artifacts, and
// the command line that starts the executor under the fetched JRE.
func (c *Cluster) newExecutor(executorID string, cfg *types.FrameworkConfiguration) *types.ExecutorDescriptor {
	name := osName()
	javaExec := "$(pwd)/jre*/bin/java"
	if name == "macosx" {
		javaExec = "$(pwd)/jre*/Contents/Home/bin/java"
	}

	return &types.ExecutorDescriptor{
		ExecutorID: executorID,
		Source:     cfg.FrameworkName,
		CPUCores:   0.1,
		MemMb:      16,
		DiskMb:     16,
		Command:    javaExec,
		CommandArgs: []string{
			"-XX:+PrintCommandLineFlags",
			"$JAVA_OPTS",
			"-classpath",
			"cassandra-executor.jar",
			"io.tessera.cassandra.executor.CassandraExecutor",
		},
		Env: executorEnv,
		Resources: []types.ResourceURI{
			{URL: c.urlForResource("/jre-7-" + name + ".tar.gz"), Extract: true},
			{URL: c.urlForResource("/apache-cassandra-" + cfg.CassandraVersion + "-bin.tar.gz"), Extract: true},
			{URL: c.urlForResource("/cassandra-executor.jar"), Extract: false},
		},
	}
}

// urlForResource joins the artifact server base URL and a resource name,
// collapsing any run of slashes that is not part of a scheme separator.
func (c *Cluster) urlForResource(resourceName string) string {
	return collapseSlashes(c.httpServerBaseURL + "/" + resourceName)
}

// collapseSlashes rewrites every maximal run of '/' into a single '/',
// except that a run immediately preceded by ':' keeps its leading slash
// (so "http://" survives while "http:///x" becomes "http://x").
func collapseSlashes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '/' {
			b.WriteByte(s[i])
			i++
			continue
		}
		j := i
		for j < len(s) && s[j] == '/' {
			j++
		}
		if i > 0 && s[i-1] == ':' && j-i > 1 {
			b.WriteString("//")
		} else {
			b.WriteByte('/')
		}
		i = j
	}
	return b.String()
}

// serverTask builds the Cassandra server task: the full configured
// resource reservation including every named port, and the configuration
// block and environment the executor renders into cassandra.yaml and
// cassandra-env.sh.
func (c *Cluster) serverTask(
	executorID, taskID string,
	metadata *types.ExecutorMetadata,
	node *types.Node,
	cfg *types.FrameworkConfiguration,
) (*types.NodeTask, error) {
	seeds, err := c.seedNodeIPs()
	if err != nil {
		return nil, err
	}

	allPorts := ports.AllPorts(cfg)
	taskConfig := map[string]string{
		"cluster_name":      cfg.FrameworkName,
		"broadcast_address": metadata.IP,
		"rpc_address":       metadata.IP,
		"listen_address":    metadata.IP,
		"seeds":             strings.Join(seeds, ","),
	}
	for _, name := range []string{ports.PortStorage, ports.PortStorageSSL, ports.PortNative, ports.PortRPC} {
		taskConfig[name] = strconv.FormatInt(allPorts[name], 10)
	}

	reserved := make([]int64, 0, len(allPorts))
	for _, port := range allPorts {
		reserved = append(reserved, port)
	}
	sort.Slice(reserved, func(i, j int) bool { return reserved[i] < reserved[j] })

	return &types.NodeTask{
		TaskID:     taskID,
		ExecutorID: executorID,
		CPUCores:   cfg.CPUCores,
		MemMb:      cfg.MemMb,
		DiskMb:     cfg.DiskMb,
		Ports:      reserved,
		Details: types.TaskDetails{
			Type: types.TaskTypeCassandraServerRun,
			CassandraServerRun: &types.CassandraServerRunTask{
				// Started in foreground with a pid file so the executor can
				// track the process.
				Command: []string{
					"apache-cassandra-" + cfg.CassandraVersion + "/bin/cassandra",
					"-p", "cassandra.pid",
					"-f",
				},
				Version: cfg.CassandraVersion,
				Config:  taskConfig,
				Env: map[string]string{
					"JMX_PORT":      strconv.FormatInt(node.JmxConnect.JmxPort, 10),
					"MAX_HEAP_SIZE": fmt.Sprintf("%dm", cfg.MemMb),
					// 100 MB of new-gen heap per physical CPU core, per the
					// cassandra-env.sh guidance.
					"HEAP_NEWSIZE": fmt.Sprintf("%dm", int(cfg.CPUCores*100)),
				},
				Jmx: node.JmxConnect,
			},
		},
	}, nil
}
