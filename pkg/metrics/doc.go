/*
Package metrics defines the Prometheus collectors for the scheduler core
and the HTTP handler that exposes them.

Collectors are package-level and registered in init, so any component may
increment them without plumbing; the binary mounts Handler() on /metrics.

	tessera_offers_evaluated_total          every offer seen by the core
	tessera_offers_satisfied_total          offers that produced tasks
	tessera_tasks_launched_total{type}      launches by payload type
	tessera_tasks_submitted_total{type}     submissions to live executors
	tessera_nodes_registered                currently registered nodes
	tessera_health_checks_recorded_total{healthy}
	tessera_cluster_jobs_started_total{job_type}
	tessera_cluster_jobs_aborted_total{job_type}

The evaluated/satisfied pair gives the park rate directly: a healthy
steady-state cluster parks almost every offer, so a satisfied rate near
the evaluated rate usually means nodes are churning.
*/
package metrics
