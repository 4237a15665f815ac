/*
Package scheduler implements Tessera's per-offer decision core: the logic
that turns each resource offer from the cluster manager into the tasks
that bring a Cassandra cluster up and keep it maintained.

The core is purely reactive. There is no timer thread; every periodic
behavior (health checks, the launch throttle) is expressed by comparing
the injected clock against persisted timestamps when an offer arrives.

# Node bring-up

Each offer advances its host's node through an implicit state machine.
The first offer from a host registers it, binds its executor and launches
the metadata task in one decision; later transitions take one offer each:

	ABSENT ── register ──▶ REGISTERED ── bind executor ──▶ EXECUTOR_BOUND
	    ── launch metadata task ──▶ METADATA_PROBING
	    ── metadata reported ──▶ METADATA_KNOWN
	    ── admission + launch server ──▶ SERVER_LAUNCHING
	    ── first healthy check ──▶ SERVING

A server launch must additionally pass cluster-level admission: the
seed-count requirement, the launch throttle (one launch per throttle
window), and for non-seeds a topology-quiescence gate over the most
recent health results. Resource shortfalls park the launch and are
logged, never thrown.

# Cluster jobs

A cluster job (repair, cleanup) walks every registered node that has an
executor strictly one at a time. The executor ids are snapshotted in
registration order, but a node's turn comes when an offer for it arrives,
so nodes are visited in offer order. The step driver runs as part of the
offer decision once the offer's node is serving: it launches the job task
when the node's turn comes, probes it for status while it runs, and
finishes or winds down the job when nothing remains.

All state lives in the persisted stores of pkg/state; the core holds no
mutable state of its own and serializes all public operations behind one
mutex.
*/
package scheduler
