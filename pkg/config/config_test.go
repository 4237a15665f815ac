package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tessera.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
frameworkName: cassandra-prod
cassandraVersion: 2.1.4
numberOfNodes: 5
numberOfSeeds: 3
cpuCores: 4
memMb: 16384
diskMb: 65536
healthCheckIntervalSeconds: 30
bootstrapGraceTimeSeconds: 300
portMappings:
  native_transport_port: 19042
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "cassandra-prod", cfg.FrameworkName)
	assert.Equal(t, "2.1.4", cfg.CassandraVersion)
	assert.Equal(t, 5, cfg.NumberOfNodes)
	assert.Equal(t, 3, cfg.NumberOfSeeds)
	assert.Equal(t, 4.0, cfg.CPUCores)
	assert.Equal(t, int64(19042), cfg.PortMappings["native_transport_port"])
	assert.NotEmpty(t, cfg.FrameworkID, "a framework id is minted on load")
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `frameworkName: minimal`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "minimal", cfg.FrameworkName)
	assert.Equal(t, DefaultCassandraVersion, cfg.CassandraVersion)
	assert.Equal(t, DefaultNumberOfNodes, cfg.NumberOfNodes)
	assert.Equal(t, DefaultNumberOfSeeds, cfg.NumberOfSeeds)
	assert.Equal(t, int64(DefaultMemMb), cfg.MemMb)
	assert.Equal(t, int64(DefaultHealthCheckIntervalSeconds), cfg.HealthCheckIntervalSeconds)
}

func TestLoadRejectsSeedsAboveNodes(t *testing.T) {
	path := writeConfig(t, `
numberOfNodes: 2
numberOfSeeds: 3
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "numberOfSeeds")
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := writeConfig(t, "numberOfNodes: [not an int")

	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestFreshFrameworkIDPerLoad(t *testing.T) {
	path := writeConfig(t, `frameworkName: tessera`)

	first, err := Load(path)
	require.NoError(t, err)
	second, err := Load(path)
	require.NoError(t, err)
	assert.NotEqual(t, first.FrameworkID, second.FrameworkID)
}
