package ports

import (
	"fmt"

	"github.com/cuemby/tessera/pkg/types"
)

// Symbolic port names understood by the registry.
const (
	PortStorage    = "storage_port"
	PortStorageSSL = "ssl_storage_port"
	PortJmx        = "jmx_port"
	PortNative     = "native_transport_port"
	PortRPC        = "rpc_port"
)

// ErrUnknownPort is returned when a port name has neither an override nor
// a default. Requesting one is a programming error.
var ErrUnknownPort = fmt.Errorf("unknown port name")

// see: http://www.datastax.com/documentation/cassandra/2.1/cassandra/security/secureFireWall_r.html
var defaultPortMappings = map[string]int64{
	PortStorage:    7000,
	PortStorageSSL: 7001,
	PortJmx:        7199,
	PortNative:     9042,
	PortRPC:        9160,
}

// PortFor resolves a symbolic port name against the configuration's
// overrides, falling back to the registry default.
func PortFor(cfg *types.FrameworkConfiguration, name string) (int64, error) {
	if cfg != nil {
		if port, ok := cfg.PortMappings[name]; ok {
			return port, nil
		}
	}
	port, ok := defaultPortMappings[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownPort, name)
	}
	return port, nil
}

// AllPorts resolves every default port name, applying the configuration's
// overrides.
func AllPorts(cfg *types.FrameworkConfiguration) map[string]int64 {
	all := make(map[string]int64, len(defaultPortMappings))
	for name := range defaultPortMappings {
		port, _ := PortFor(cfg, name)
		all[name] = port
	}
	return all
}
