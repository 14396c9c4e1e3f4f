package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "systemgraph"

// Prometheus implements every hook interface with Prometheus collectors.
type Prometheus struct {
	fetchTotal      *prometheus.CounterVec
	fetchDuration   prometheus.Histogram
	fetchEntities   prometheus.Histogram
	buildNodes      prometheus.Histogram
	buildEdges      prometheus.Histogram
	renderTotal     *prometheus.CounterVec
	renderDuration  prometheus.Histogram
	cacheOps        *prometheus.CounterVec
	cacheBytes      *prometheus.CounterVec
	upstreamTotal   *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	requestLatency  *prometheus.HistogramVec
}

// NewPrometheus registers the systemgraph collectors with reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	f := promauto.With(reg)
	return &Prometheus{
		fetchTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_fetch_total",
			Help:      "Catalog fetches by result",
		}, []string{"result"}),
		fetchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "catalog_fetch_duration_seconds",
			Help:      "Catalog fetch duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		}),
		fetchEntities: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "catalog_fetch_entities",
			Help:      "Entities returned per catalog fetch",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),
		buildNodes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Nodes per built graph",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),
		buildEdges: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_edges",
			Help:      "Edges per built graph",
			Buckets:   []float64{0, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		renderTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_total",
			Help:      "Render runs by result",
		}, []string{"result"}),
		renderDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Render duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		cacheOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Cache operations by key type and outcome",
		}, []string{"key_type", "op"}),
		cacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache by key type",
		}, []string{"key_type"}),
		upstreamTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Outgoing catalog API requests by host and status",
		}, []string{"host", "status"}),
		upstreamLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Outgoing catalog API latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"host"}),
		requestTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Served HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		requestLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Served HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (p *Prometheus) OnFetchStart(context.Context, string) {}

func (p *Prometheus) OnFetchComplete(_ context.Context, _ string, entityCount int, d time.Duration, err error) {
	p.fetchTotal.WithLabelValues(result(err)).Inc()
	p.fetchDuration.Observe(d.Seconds())
	if err == nil {
		p.fetchEntities.Observe(float64(entityCount))
	}
}

func (p *Prometheus) OnBuildComplete(_ context.Context, _ string, nodeCount, edgeCount int, _ time.Duration) {
	p.buildNodes.Observe(float64(nodeCount))
	p.buildEdges.Observe(float64(edgeCount))
}

func (p *Prometheus) OnRenderStart(context.Context, []string) {}

func (p *Prometheus) OnRenderComplete(_ context.Context, _ []string, d time.Duration, err error) {
	p.renderTotal.WithLabelValues(result(err)).Inc()
	p.renderDuration.Observe(d.Seconds())
}

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, size int) {
	p.cacheOps.WithLabelValues(keyType, "set").Inc()
	p.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (p *Prometheus) OnRequest(context.Context, string, string, string) {}

func (p *Prometheus) OnResponse(_ context.Context, _, host, _ string, status int, d time.Duration) {
	p.upstreamTotal.WithLabelValues(host, strconv.Itoa(status)).Inc()
	p.upstreamLatency.WithLabelValues(host).Observe(d.Seconds())
}

func (p *Prometheus) OnError(_ context.Context, _, host, _ string, _ error) {
	p.upstreamTotal.WithLabelValues(host, "error").Inc()
}

// ObserveRequest records a served HTTP request. route is the matched
// pattern, not the raw path, to keep label cardinality bounded.
func (p *Prometheus) ObserveRequest(route, method string, status int, d time.Duration) {
	p.requestTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	p.requestLatency.WithLabelValues(route).Observe(d.Seconds())
}

var (
	_ PipelineHooks = (*Prometheus)(nil)
	_ CacheHooks    = (*Prometheus)(nil)
	_ HTTPHooks     = (*Prometheus)(nil)
)
