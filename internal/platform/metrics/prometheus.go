package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Checkout outcomes recorded by CheckoutTotal.
const (
	OutcomeSucceeded   = "succeeded"
	OutcomeRejected    = "rejected"
	OutcomeCompensated = "compensated"
)

type MetricsManager struct {
	Registry *prometheus.Registry

	CheckoutTotal          *prometheus.CounterVec
	CheckoutAmount         prometheus.Counter
	RequestsBackfilled     prometheus.Counter
	ReconciliationRuns     *prometheus.CounterVec
	SagasRecovered         *prometheus.CounterVec
	ListingStatusChanges   *prometheus.CounterVec
	HTTPRequestDuration    *prometheus.HistogramVec
	HTTPRequestErrorsTotal *prometheus.CounterVec
}

// NewMetricsManager registers the service metrics on a private registry so
// tests can build as many managers as they like.
func NewMetricsManager(namespace string) *MetricsManager {
	registry := prometheus.NewRegistry()

	m := &MetricsManager{
		Registry: registry,
		CheckoutTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Checkouts by outcome.",
		}, []string{"outcome"}),
		CheckoutAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_amount_total",
			Help:      "Sum of order totals for which a payment intent was created.",
		}),
		RequestsBackfilled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_backfilled_total",
			Help:      "Adoption requests created by reconciliation.",
		}),
		ReconciliationRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliation_runs_total",
			Help:      "Reconciliation runs by trigger.",
		}, []string{"trigger"}),
		SagasRecovered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_sagas_recovered_total",
			Help:      "Stalled checkout sagas handled by the reconciler, by action.",
		}, []string{"action"}),
		ListingStatusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_status_changes_total",
			Help:      "Listing status transitions by target status.",
		}, []string{"status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		HTTPRequestErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "HTTP responses with status >= 400 by route.",
		}, []string{"route", "status"}),
	}

	registry.MustRegister(
		m.CheckoutTotal,
		m.CheckoutAmount,
		m.RequestsBackfilled,
		m.ReconciliationRuns,
		m.SagasRecovered,
		m.ListingStatusChanges,
		m.HTTPRequestDuration,
		m.HTTPRequestErrorsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *MetricsManager) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
