package state

import (
	"time"

	"github.com/cuemby/tessera/pkg/storage"
	"github.com/cuemby/tessera/pkg/types"
)

// Configuration is the persisted framework configuration singleton.
type Configuration struct {
	persisted[types.FrameworkConfiguration]
}

// NewConfiguration creates the store over the given backend. The default
// supplier is the bootstrap configuration; it is returned until the first
// Set persists a blob.
func NewConfiguration(store storage.Store, bootstrap *types.FrameworkConfiguration) *Configuration {
	return &Configuration{persisted[types.FrameworkConfiguration]{
		key:   KeyConfiguration,
		store: store,
		def: func() *types.FrameworkConfiguration {
			cfg := *bootstrap
			return &cfg
		},
	}}
}

// Get returns the current configuration.
func (s *Configuration) Get() (*types.FrameworkConfiguration, error) {
	return s.get()
}

// Set overwrites the configuration.
func (s *Configuration) Set(cfg *types.FrameworkConfiguration) error {
	return s.set(cfg)
}

// HealthCheckInterval returns the configured interval, or zero when
// periodic checks are disabled.
func (s *Configuration) HealthCheckInterval() (time.Duration, error) {
	cfg, err := s.get()
	if err != nil {
		return 0, err
	}
	if cfg.HealthCheckIntervalSeconds <= 0 {
		return 0, nil
	}
	return time.Duration(cfg.HealthCheckIntervalSeconds) * time.Second, nil
}
