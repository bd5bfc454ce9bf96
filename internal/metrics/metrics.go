package metrics

import (
	"net/http"
	"time"

	"github.com/msalah0e/ontoview/internal/graph"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ontoview"

// Collector holds the Prometheus metrics for one process. A nil *Collector
// is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	Builds        *prometheus.CounterVec
	BuildDuration *prometheus.HistogramVec
	Records       *prometheus.CounterVec
	FetchFailures *prometheus.CounterVec
	Events        *prometheus.CounterVec
	StaleCommits  prometheus.Counter
	DetailLookups *prometheus.CounterVec
	SnapshotNodes prometheus.Gauge
	SnapshotEdges prometheus.Gauge
}

// New creates a collector with its own registry.
func New() *Collector {
	registry := prometheus.NewRegistry()

	builds := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Graph builds by kind and outcome",
		},
		[]string{"kind", "status"},
	)

	buildDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Time spent assembling a graph, fetches included",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	records := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "builder_records_total",
			Help:      "Records seen by the graph builder, by disposition",
		},
		[]string{"disposition"},
	)

	fetchFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Per-node relationship fetches that failed and were treated as empty",
		},
		[]string{"kind"},
	)

	events := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interaction_events_total",
			Help:      "Pointer and wheel events handled",
		},
		[]string{"kind"},
	)

	staleCommits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_commits_total",
			Help:      "Snapshot commits discarded because a newer build had started",
		},
	)

	detailLookups := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detail_lookups_total",
			Help:      "Detail lookups by outcome",
		},
		[]string{"outcome"},
	)

	snapshotNodes := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "snapshot_nodes",
		Help:      "Nodes in the current snapshot",
	})

	snapshotEdges := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "snapshot_edges",
		Help:      "Edges in the current snapshot",
	})

	registry.MustRegister(
		builds,
		buildDuration,
		records,
		fetchFailures,
		events,
		staleCommits,
		detailLookups,
		snapshotNodes,
		snapshotEdges,
	)

	return &Collector{
		registry:      registry,
		Builds:        builds,
		BuildDuration: buildDuration,
		Records:       records,
		FetchFailures: fetchFailures,
		Events:        events,
		StaleCommits:  staleCommits,
		DetailLookups: detailLookups,
		SnapshotNodes: snapshotNodes,
		SnapshotEdges: snapshotEdges,
	}
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveBuild records one finished build.
func (c *Collector) ObserveBuild(kind string, r graph.Report, failedFetches int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.Builds.WithLabelValues(kind, "ok").Inc()
	c.BuildDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	c.Records.WithLabelValues("seen").Add(float64(r.Records))
	c.Records.WithLabelValues("unrecognized").Add(float64(r.Unrecognized))
	c.Records.WithLabelValues("duplicate").Add(float64(r.Duplicates))
	c.Records.WithLabelValues("dangling").Add(float64(r.Dangling))
	c.FetchFailures.WithLabelValues(kind).Add(float64(failedFetches))
}

// BuildFailed records a build that produced no graph.
func (c *Collector) BuildFailed(kind string) {
	if c == nil {
		return
	}
	c.Builds.WithLabelValues(kind, "error").Inc()
}

// ObserveEvent counts one interaction event.
func (c *Collector) ObserveEvent(kind string) {
	if c == nil {
		return
	}
	c.Events.WithLabelValues(kind).Inc()
}

// ObserveStale counts a discarded commit.
func (c *Collector) ObserveStale() {
	if c == nil {
		return
	}
	c.StaleCommits.Inc()
}

// ObserveDetail counts a detail lookup outcome: ok, notice or stale.
func (c *Collector) ObserveDetail(outcome string) {
	if c == nil {
		return
	}
	c.DetailLookups.WithLabelValues(outcome).Inc()
}

// ObserveSnapshot records the size of the committed snapshot.
func (c *Collector) ObserveSnapshot(nodes, edges int) {
	if c == nil {
		return
	}
	c.SnapshotNodes.Set(float64(nodes))
	c.SnapshotEdges.Set(float64(edges))
}
