package config

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/cuemby/tessera/pkg/types"
)

// File is the YAML bootstrap configuration for a framework instance. It
// seeds the persisted FrameworkConfiguration on first start; afterwards
// the persisted copy is authoritative.
type File struct {
	FrameworkName    string `yaml:"frameworkName"`
	CassandraVersion string `yaml:"cassandraVersion"`

	NumberOfNodes int `yaml:"numberOfNodes"`
	NumberOfSeeds int `yaml:"numberOfSeeds"`

	CPUCores float64 `yaml:"cpuCores"`
	MemMb    int64   `yaml:"memMb"`
	DiskMb   int64   `yaml:"diskMb"`

	HealthCheckIntervalSeconds int64 `yaml:"healthCheckIntervalSeconds"`
	BootstrapGraceTimeSeconds  int64 `yaml:"bootstrapGraceTimeSeconds"`

	PortMappings map[string]int64 `yaml:"portMappings,omitempty"`
}

// Defaults for fields the bootstrap file leaves unset.
const (
	DefaultFrameworkName              = "tessera"
	DefaultCassandraVersion           = "2.1.2"
	DefaultNumberOfNodes              = 3
	DefaultNumberOfSeeds              = 2
	DefaultCPUCores                   = 2.0
	DefaultMemMb                      = 8192
	DefaultDiskMb                     = 16384
	DefaultHealthCheckIntervalSeconds = 60
	DefaultBootstrapGraceTimeSeconds  = 120
)

// Load reads and validates a bootstrap file, returning the framework
// configuration with a freshly minted framework id.
func Load(path string) (*types.FrameworkConfiguration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return FromFile(&file)
}

// FromFile applies defaults and validation to a parsed bootstrap file.
func FromFile(file *File) (*types.FrameworkConfiguration, error) {
	cfg := &types.FrameworkConfiguration{
		FrameworkID:                uuid.New().String(),
		FrameworkName:              file.FrameworkName,
		CassandraVersion:           file.CassandraVersion,
		NumberOfNodes:              file.NumberOfNodes,
		NumberOfSeeds:              file.NumberOfSeeds,
		CPUCores:                   file.CPUCores,
		MemMb:                      file.MemMb,
		DiskMb:                     file.DiskMb,
		HealthCheckIntervalSeconds: file.HealthCheckIntervalSeconds,
		BootstrapGraceTimeSeconds:  file.BootstrapGraceTimeSeconds,
		PortMappings:               file.PortMappings,
	}

	if cfg.FrameworkName == "" {
		cfg.FrameworkName = DefaultFrameworkName
	}
	if cfg.CassandraVersion == "" {
		cfg.CassandraVersion = DefaultCassandraVersion
	}
	if cfg.NumberOfNodes == 0 {
		cfg.NumberOfNodes = DefaultNumberOfNodes
	}
	if cfg.NumberOfSeeds == 0 {
		cfg.NumberOfSeeds = DefaultNumberOfSeeds
	}
	if cfg.CPUCores == 0 {
		cfg.CPUCores = DefaultCPUCores
	}
	if cfg.MemMb == 0 {
		cfg.MemMb = DefaultMemMb
	}
	if cfg.DiskMb == 0 {
		cfg.DiskMb = DefaultDiskMb
	}
	if cfg.HealthCheckIntervalSeconds == 0 {
		cfg.HealthCheckIntervalSeconds = DefaultHealthCheckIntervalSeconds
	}
	if cfg.BootstrapGraceTimeSeconds == 0 {
		cfg.BootstrapGraceTimeSeconds = DefaultBootstrapGraceTimeSeconds
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the cross-field invariants of a configuration.
func Validate(cfg *types.FrameworkConfiguration) error {
	if cfg.NumberOfNodes < 1 {
		return fmt.Errorf("numberOfNodes must be at least 1, got %d", cfg.NumberOfNodes)
	}
	if cfg.NumberOfSeeds < 1 {
		return fmt.Errorf("numberOfSeeds must be at least 1, got %d", cfg.NumberOfSeeds)
	}
	if cfg.NumberOfSeeds > cfg.NumberOfNodes {
		return fmt.Errorf("numberOfSeeds (%d) must not exceed numberOfNodes (%d)", cfg.NumberOfSeeds, cfg.NumberOfNodes)
	}
	if cfg.CPUCores <= 0 {
		return fmt.Errorf("cpuCores must be positive, got %f", cfg.CPUCores)
	}
	if cfg.MemMb <= 0 {
		return fmt.Errorf("memMb must be positive, got %d", cfg.MemMb)
	}
	if cfg.DiskMb <= 0 {
		return fmt.Errorf("diskMb must be positive, got %d", cfg.DiskMb)
	}
	return nil
}
