// Package metrics exposes Prometheus collectors for the API and workers.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	InvoicesGeneratedTotal *prometheus.CounterVec
	InvoiceTransitions     *prometheus.CounterVec
	EmailsTotal            *prometheus.CounterVec

	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	QueueJobsTotal *prometheus.CounterVec
	SweepUpdates   *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors on the given registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoffice_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backoffice_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		InvoicesGeneratedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoffice_invoices_generated_total",
				Help: "Invoices generated, by billing type",
			},
			[]string{"billing_type"},
		),
		InvoiceTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoffice_invoice_transitions_total",
				Help: "Invoice status changes, by target status",
			},
			[]string{"status"},
		),
		EmailsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoffice_emails_total",
				Help: "Outbound e-mails, by kind and result",
			},
			[]string{"kind", "result"},
		),
		CacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_settings_cache_hits_total",
			Help: "Company settings cache hits",
		}),
		CacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_settings_cache_misses_total",
			Help: "Company settings cache misses",
		}),
		QueueJobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoffice_queue_jobs_total",
				Help: "Queue jobs handled by workers, by queue and result",
			},
			[]string{"queue", "result"},
		),
		SweepUpdates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoffice_sweep_updates_total",
				Help: "Records changed by the scheduled sweep",
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.InvoicesGeneratedTotal,
		m.InvoiceTransitions,
		m.EmailsTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.QueueJobsTotal,
		m.SweepUpdates,
	)
	return m
}

// NewDefault creates metrics on a fresh registry that also carries the Go
// runtime and process collectors.
func NewDefault() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewMetrics(registry)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) InvoiceGenerated(billingType string) {
	if m == nil {
		return
	}
	m.InvoicesGeneratedTotal.WithLabelValues(billingType).Inc()
}

func (m *Metrics) InvoiceTransitioned(status string) {
	if m == nil {
		return
	}
	m.InvoiceTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) EmailSent(kind string, err error) {
	if m == nil {
		return
	}
	m.EmailsTotal.WithLabelValues(kind, result(err)).Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.Inc()
		return
	}
	m.CacheMissesTotal.Inc()
}

func (m *Metrics) QueueJob(queue, outcome string) {
	if m == nil {
		return
	}
	m.QueueJobsTotal.WithLabelValues(queue, outcome).Inc()
}

func (m *Metrics) SweepUpdated(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SweepUpdates.WithLabelValues(kind).Add(float64(n))
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
