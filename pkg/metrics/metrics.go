package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Offer decision metrics
	OffersEvaluated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tessera_offers_evaluated_total",
			Help: "Total number of resource offers evaluated by the scheduler",
		},
	)

	OffersSatisfied = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tessera_offers_satisfied_total",
			Help: "Total number of offers that produced at least one task",
		},
	)

	TasksLaunched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tessera_tasks_launched_total",
			Help: "Total number of tasks launched by payload type",
		},
		[]string{"type"},
	)

	TasksSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tessera_tasks_submitted_total",
			Help: "Total number of payloads submitted to running executors by type",
		},
		[]string{"type"},
	)

	// Cluster metrics
	NodesRegistered = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tessera_nodes_registered",
			Help: "Number of nodes currently registered with the framework",
		},
	)

	HealthChecksRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tessera_health_checks_recorded_total",
			Help: "Total number of health-check results recorded by outcome",
		},
		[]string{"healthy"},
	)

	// Cluster job metrics
	ClusterJobsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tessera_cluster_jobs_started_total",
			Help: "Total number of cluster jobs started by job type",
		},
		[]string{"job_type"},
	)

	ClusterJobsAborted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tessera_cluster_jobs_aborted_total",
			Help: "Total number of cluster jobs aborted by job type",
		},
		[]string{"job_type"},
	)
)

func init() {
	prometheus.MustRegister(OffersEvaluated)
	prometheus.MustRegister(OffersSatisfied)
	prometheus.MustRegister(TasksLaunched)
	prometheus.MustRegister(TasksSubmitted)
	prometheus.MustRegister(NodesRegistered)
	prometheus.MustRegister(HealthChecksRecorded)
	prometheus.MustRegister(ClusterJobsStarted)
	prometheus.MustRegister(ClusterJobsAborted)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
