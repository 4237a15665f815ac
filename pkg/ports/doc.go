// Package ports resolves the symbolic Cassandra port names to numeric
// ports, applying sparse configuration overrides over the well-known
// defaults.
package ports
