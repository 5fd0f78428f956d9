// Package vmetrics declares the data group's Prometheus metrics:
// gauges/counters/histograms registered once at package init and updated
// inline by the components that own the events, plus an HTTP handler for
// scraping.
package vmetrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ElectionsTotal counts processElectionRequest outcomes by verdict.
	ElectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vortex_dgm_elections_total",
			Help: "Total number of election requests processed, by verdict.",
		},
		[]string{"verdict"},
	)

	// Role reports the local role as a gauge: 0=Elector, 1=Follower, 2=Leader.
	Role = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vortex_dgm_role",
			Help: "Current role of this data group member (0=elector, 1=follower, 2=leader).",
		},
	)

	// Term is the current data-group term.
	Term = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vortex_dgm_term",
			Help: "Current data-group term.",
		},
	)

	// LastLogIndex mirrors the log manager's lastIndex.
	LastLogIndex = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vortex_dgm_last_log_index",
			Help: "Last log index known to the partitioned log manager.",
		},
	)

	// SnapshotApplyDuration times applySnapshot calls by variant.
	SnapshotApplyDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vortex_dgm_snapshot_apply_duration_seconds",
			Help:    "Duration of snapshot application by variant.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"variant"},
	)

	// FilePullsTotal counts loadRemoteFile outcomes.
	FilePullsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vortex_dgm_file_pulls_total",
			Help: "Total number of remote file pull attempts, by outcome.",
		},
		[]string{"outcome"},
	)

	// FilePullBytes sums bytes received by pullRemoteFile across all pulls.
	FilePullBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vortex_dgm_file_pull_bytes_total",
			Help: "Total bytes received across all remote file pulls.",
		},
	)

	// PullSnapshotTasksInflight is the number of outstanding pull-snapshot
	// scheduler tasks.
	PullSnapshotTasksInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vortex_dgm_pull_snapshot_tasks_inflight",
			Help: "Number of in-flight pull-snapshot scheduler tasks.",
		},
	)

	// QueryReadersActive is the number of readers currently registered in
	// the Query Session Registry.
	QueryReadersActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vortex_dgm_query_readers_active",
			Help: "Number of query readers currently registered.",
		},
	)

	// ForwardsTotal counts leader-forward attempts by RPC name and outcome.
	ForwardsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vortex_dgm_leader_forwards_total",
			Help: "Total number of requests forwarded to the known leader.",
		},
		[]string{"rpc", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		ElectionsTotal,
		Role,
		Term,
		LastLogIndex,
		SnapshotApplyDuration,
		FilePullsTotal,
		FilePullBytes,
		PullSnapshotTasksInflight,
		QueryReadersActive,
		ForwardsTotal,
	)
}

// Handler returns the HTTP handler serving the registered metrics in the
// Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
