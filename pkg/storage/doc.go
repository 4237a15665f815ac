/*
Package storage provides the key-value blob store behind Tessera's
persisted state.

The scheduler's durability model is deliberately coarse: each logical
store in pkg/state serializes to a single JSON blob under a stable key,
and this package only moves those bytes. There are no per-record buckets,
secondary indexes, or partial updates - the state layer always rewrites a
whole blob, so the backend's job reduces to durable get/set with
read-your-writes.

# Architecture

	┌─────────────────── pkg/state ───────────────────┐
	│ ClusterState  Configuration  HealthCheckHistory │
	│ Jobs          ExecutorCounter                   │
	└──────────────┬───────────────────────────────────┘
	               │ one JSON blob per store
	               ▼
	┌─────────────────── Store ────────────────────────┐
	│ Get(key) → (data, ok)     Set(key, data)         │
	└────────┬─────────────────────────────┬───────────┘
	         ▼                             ▼
	   BoltStore                      MemoryStore
	   <dataDir>/tessera.db           map under RWMutex
	   one bucket, fsync on commit    tests only

# Durability contract

Set returns only after the write is acknowledged: BoltStore commits the
bbolt transaction (which fsyncs) before returning, so a mutation the
scheduler considers applied survives a crash. A Get that follows a Set in
program order observes the new value. Both implementations copy bytes on
the way in and out; callers may mutate their slices freely.

Crash safety of the scheduler as a whole falls out of this contract plus
the single-threaded decision core: every observable state change is
written through one of these blobs before the offer callback returns.

# Usage

	store, err := storage.NewBoltStore("/var/lib/tessera")
	if err != nil {
		return err
	}
	defer store.Close()

	clusterState := state.NewClusterState(store)

MemoryStore backs the unit tests; it honors the same copy and
read-your-writes semantics so state-layer tests exercise the real
encode/decode paths without a database file.
*/
package storage
