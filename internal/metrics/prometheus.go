package metrics

import (
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "metadocs"

// PrometheusRecorder implements Recorder using Prometheus metrics registered
// on its own registry.
type PrometheusRecorder struct {
	reg            *prom.Registry
	requests       *prom.CounterVec
	rebuildSeconds *prom.HistogramVec
	rebuilds       *prom.CounterVec
	watchEvents    *prom.CounterVec
	refreshes      *prom.CounterVec
	routes         prom.Gauge
}

// NewPrometheusRecorder constructs the collectors and registers them on reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		requests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Requests served by route prefix and status code",
		}, []string{"prefix", "code"}),
		rebuildSeconds: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "rebuild_duration_seconds",
			Help:      "Duration of rebuilds triggered by the watcher",
			Buckets:   prom.DefBuckets,
		}, []string{"target"}),
		rebuilds: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "rebuilds_total",
			Help:      "Rebuild outcomes by target",
		}, []string{"target", "result"}),
		watchEvents: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "watch_events_total",
			Help:      "File system events by kind",
		}, []string{"kind"}),
		refreshes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "route_refreshes_total",
			Help:      "Route table refreshes by whether the table changed",
		}, []string{"changed"}),
		routes: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "routes",
			Help:      "Number of project routes currently served",
		}),
	}
	reg.MustRegister(pr.requests, pr.rebuildSeconds, pr.rebuilds, pr.watchEvents, pr.refreshes, pr.routes)
	return pr
}

// Registry returns the registry the collectors live in.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (p *PrometheusRecorder) IncRequest(prefix string, status int) {
	if p == nil {
		return
	}
	p.requests.WithLabelValues(prefix, strconv.Itoa(status)).Inc()
}

func (p *PrometheusRecorder) ObserveRebuild(target string, d time.Duration, result ResultLabel) {
	if p == nil {
		return
	}
	p.rebuildSeconds.WithLabelValues(target).Observe(d.Seconds())
	p.rebuilds.WithLabelValues(target, string(result)).Inc()
}

func (p *PrometheusRecorder) IncWatchEvent(kind string) {
	if p == nil {
		return
	}
	p.watchEvents.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncRouteRefresh(changed bool) {
	if p == nil {
		return
	}
	p.refreshes.WithLabelValues(strconv.FormatBool(changed)).Inc()
}

func (p *PrometheusRecorder) SetRoutes(n int) {
	if p == nil {
		return
	}
	p.routes.Set(float64(n))
}
