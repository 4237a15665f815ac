// Package config loads the YAML bootstrap configuration that seeds the
// persisted framework configuration on first start.
package config
