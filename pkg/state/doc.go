/*
Package state provides the typed persisted stores the scheduler core
depends on: cluster topology, framework configuration, health-check
history, cluster jobs, and the executor-id counter.

Each store wraps a single JSON blob under a stable key in the storage
backend. Every mutation is written through before the call returns, so the
scheduler is crash-safe: the stores are the single source of truth and the
core caches nothing across calls. Reads of an absent blob return the
store's default; an undecodable blob surfaces ErrStateCorrupt, which is
fatal.
*/
package state
