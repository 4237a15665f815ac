/*
Package types defines the shared domain types for Tessera: the framework
configuration, per-host node records, executor and task descriptors with
their typed payloads, health-check history, cluster job status, and the
inbound offer and task-status shapes.

# Shape invariants

The structures form no cycles. Nodes reference executors by id, never by
pointer, and job status references nodes by executor id; resolving an id
back to a node is a linear scan, which is fine because the node count is
bounded by the configured cluster size.

A Node's optional fields record its bring-up progress and are filled
strictly in order:

	Executor ──▶ MetadataTask ──▶ ServerTask

so the node's lifecycle state is derived from which pointers are set
rather than stored as an enum. Task removal clears these in reverse:
losing the server task clears only ServerTask, while losing the metadata
task clears both (metadata loss invalidates the server).

Among all registered nodes, exactly min(registered, numberOfSeeds) have
Seed set: the first numberOfSeeds registrations become seeds and the flag
is fixed for the node's lifetime.

# Task payloads

TaskDetails is a tagged sum over the five payload variants. Type selects
the variant and exactly the matching pointer is non-nil:

	EXECUTOR_METADATA    → ExecutorMetadata
	CASSANDRA_SERVER_RUN → CassandraServerRun
	NODE_JOB             → NodeJob
	HEALTH_CHECK         → (tag only)
	NODE_JOB_STATUS      → (tag only)

The first three are launched as tasks; the last two are submitted to an
already-running executor.

# Serialization

Everything here round-trips losslessly through encoding/json, which is
how pkg/state persists it: decode(encode(v)) == v for any value built
from exported fields. Timestamps are milliseconds since the Unix epoch
(int64), matching what the injected clock produces.
*/
package types
