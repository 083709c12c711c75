package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the service's Prometheus registry.
// All methods are safe to call on a nil *Collector, which records nothing.
type Collector struct {
	reg *prometheus.Registry

	ProviderCalls        *prometheus.CounterVec   // provider, op, outcome
	ProviderCallDuration *prometheus.HistogramVec // provider, op

	ContinuityViolations prometheus.Counter
	BackwardCorrections  *prometheus.CounterVec // outcome: corrected|failed
	RoutesComputed       *prometheus.CounterVec // direction, outcome: ok|error

	ScheduleRefreshes *prometheus.CounterVec // outcome: ok|error|fallback

	HTTPRequests        *prometheus.CounterVec   // route, status
	HTTPRequestDuration *prometheus.HistogramVec // route
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		ProviderCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "commute_provider_calls_total",
			Help: "External provider calls by outcome.",
		}, []string{"provider", "op", "outcome"}),
		ProviderCallDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "commute_provider_call_duration_seconds",
			Help:    "Latency of external provider calls.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"provider", "op"}),
		ContinuityViolations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "commute_continuity_violations_total",
			Help: "Fixed-schedule segments whose forward-matched run departed before the rider could reach it.",
		}),
		BackwardCorrections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "commute_backward_corrections_total",
			Help: "Backward correction re-queries by outcome.",
		}, []string{"outcome"}),
		RoutesComputed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "commute_routes_computed_total",
			Help: "Scheduled routes by direction and outcome.",
		}, []string{"direction", "outcome"}),
		ScheduleRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "commute_bus_schedule_refresh_total",
			Help: "Bus schedule refresh attempts by outcome.",
		}, []string{"outcome"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "commute_http_requests_total",
			Help: "HTTP requests by route pattern and status.",
		}, []string{"route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "commute_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		c.ProviderCalls, c.ProviderCallDuration,
		c.ContinuityViolations, c.BackwardCorrections, c.RoutesComputed,
		c.ScheduleRefreshes,
		c.HTTPRequests, c.HTTPRequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.reg
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

func (c *Collector) ObserveProviderCall(provider, op string, d time.Duration, err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.ProviderCalls.WithLabelValues(provider, op, outcome).Inc()
	c.ProviderCallDuration.WithLabelValues(provider, op).Observe(d.Seconds())
}

func (c *Collector) ContinuityViolation() {
	if c == nil {
		return
	}
	c.ContinuityViolations.Inc()
}

func (c *Collector) BackwardCorrection(ok bool) {
	if c == nil {
		return
	}
	if ok {
		c.BackwardCorrections.WithLabelValues("corrected").Inc()
		return
	}
	c.BackwardCorrections.WithLabelValues("failed").Inc()
}

func (c *Collector) RouteComputed(direction string, hasError bool) {
	if c == nil {
		return
	}
	outcome := "ok"
	if hasError {
		outcome = "error"
	}
	c.RoutesComputed.WithLabelValues(direction, outcome).Inc()
}

func (c *Collector) ScheduleRefresh(outcome string) {
	if c == nil {
		return
	}
	c.ScheduleRefreshes.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveHTTP(route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	c.HTTPRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}
