// Package metrics exports layerweave events to Prometheus by implementing
// the hook interfaces of pkg/observability.
//
//	reg := prometheus.NewRegistry()
//	m := metrics.New(reg)
//	m.Install()
//	defer observability.Reset()
//	http.Handle("/metrics", metrics.Handler(reg))
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/layerweave/pkg/observability"
)

const namespace = "layerweave"

// Metrics holds the collectors. It satisfies every observability hook
// interface.
type Metrics struct {
	treeBuilds    *prometheus.CounterVec
	treeDuration  *prometheus.HistogramVec
	treeUnreached *prometheus.CounterVec

	bundleRuns      *prometheus.CounterVec
	bundleDuration  prometheus.Histogram
	bundleEdges     prometheus.Histogram
	bundleCompat    prometheus.Histogram
	bundleInflight  prometheus.Gauge

	cacheRequests *prometheus.CounterVec
	cacheBytes    *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpErrors   *prometheus.CounterVec
}

// New registers the collectors with reg, plus the Go runtime and process
// collectors.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		treeBuilds: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tree_builds_total",
			Help:      "Tree constructions by algorithm and outcome.",
		}, []string{"algorithm", "status"}),
		treeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tree_build_duration_seconds",
			Help:      "Time to build one tree.",
			Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		}, []string{"algorithm"}),
		treeUnreached: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tree_unreached_vertices_total",
			Help:      "Layer vertices left out of a tree because the layer is disconnected.",
		}, []string{"algorithm"}),

		bundleRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bundle_runs_total",
			Help:      "Edge bundling runs by outcome.",
		}, []string{"status"}),
		bundleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bundle_duration_seconds",
			Help:      "Time to bundle one candidate edge set.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		bundleEdges: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bundle_candidate_edges",
			Help:      "Candidate edges per bundling run.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		bundleCompat: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bundle_compatible_pairs",
			Help:      "Edge pairs above the compatibility threshold per run.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
		bundleInflight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bundle_inflight",
			Help:      "Bundling runs in progress.",
		}),

		cacheRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Cache lookups by kind and result.",
		}, []string{"kind", "result"}),
		cacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache by kind.",
		}, []string{"kind"}),

		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "HTTP error responses by error code.",
		}, []string{"route", "code"}),
	}
}

// Install registers m as the process-wide tree, bundle, cache and HTTP
// hooks.
func (m *Metrics) Install() {
	observability.SetTreeHooks(m)
	observability.SetBundleHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// =============================================================================
// Hook implementations
// =============================================================================

func (m *Metrics) OnTreeStart(context.Context, string, int, int) {}

func (m *Metrics) OnTreeBuilt(_ context.Context, alg string, _ int, _ int, unreached int, d time.Duration, err error) {
	m.treeBuilds.WithLabelValues(alg, status(err)).Inc()
	if err != nil {
		return
	}
	m.treeDuration.WithLabelValues(alg).Observe(d.Seconds())
	if unreached > 0 {
		m.treeUnreached.WithLabelValues(alg).Add(float64(unreached))
	}
}

func (m *Metrics) OnBundleStart(context.Context, int) {
	m.bundleInflight.Inc()
}

func (m *Metrics) OnBundleComplete(_ context.Context, edges, compatiblePairs, _ int, d time.Duration, err error) {
	m.bundleInflight.Dec()
	m.bundleRuns.WithLabelValues(status(err)).Inc()
	if err != nil {
		return
	}
	m.bundleDuration.Observe(d.Seconds())
	m.bundleEdges.Observe(float64(edges))
	m.bundleCompat.Observe(float64(compatiblePairs))
}

func (m *Metrics) OnCacheHit(_ context.Context, kind string) {
	m.cacheRequests.WithLabelValues(kind, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, kind string) {
	m.cacheRequests.WithLabelValues(kind, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, kind string, size int) {
	m.cacheBytes.WithLabelValues(kind).Add(float64(size))
}

func (m *Metrics) OnRequest(context.Context, string, string) {}

func (m *Metrics) OnResponse(_ context.Context, method, route string, code int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) OnError(_ context.Context, _ string, route, code string) {
	m.httpErrors.WithLabelValues(route, code).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

var (
	_ observability.TreeHooks   = (*Metrics)(nil)
	_ observability.BundleHooks = (*Metrics)(nil)
	_ observability.CacheHooks  = (*Metrics)(nil)
	_ observability.HTTPHooks   = (*Metrics)(nil)
)
