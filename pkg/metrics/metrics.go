package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const namespace = "backoffice"

// Metrics owns a private registry. A nil *Metrics is a valid no-op recorder.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	logins        *prometheus.CounterVec
	resolutions   *prometheus.CounterVec
	journalShips  *prometheus.CounterVec
	periodsClosed prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_login_attempts_total",
			Help:      "Password sign-in attempts by outcome.",
		}, []string{"outcome"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "taxonomy_resolutions_total",
			Help:      "Indicator aggregations by outcome.",
		}, []string{"outcome"}),
		journalShips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journal_entries_total",
			Help:      "Modification log entries drained from the local buffer.",
		}, []string{"result"}),
		periodsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collection_periods_closed_total",
			Help:      "Collection periods closed by the scheduler.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.logins,
		m.resolutions,
		m.journalShips,
		m.periodsClosed,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() fasthttp.RequestHandler {
	return fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Instrument wraps next and records status and latency under route.
func (m *Metrics) Instrument(route string, next fasthttp.RequestHandler) fasthttp.RequestHandler {
	if m == nil {
		return next
	}
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		next(ctx)
		method := string(ctx.Method())
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(ctx.Response.StatusCode())).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) LoginAttempt(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) TaxonomyResolution(outcome string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) JournalShipped(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.journalShips.WithLabelValues(result).Add(float64(n))
}

func (m *Metrics) PeriodsClosed(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.periodsClosed.Add(float64(n))
}
