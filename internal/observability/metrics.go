package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors for the campaign delivery flow.
type Metrics struct {
	registry *prometheus.Registry

	deliveriesSentTotal   *prometheus.CounterVec
	deliveriesFailedTotal *prometheus.CounterVec
	deliveriesSkipped     *prometheus.CounterVec
	sendDuration          *prometheus.HistogramVec
	dispatchInflight      *prometheus.GaugeVec
	batchesTotal          *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		deliveriesSentTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mailblast",
				Name:      "deliveries_sent_total",
				Help:      "Total number of campaign emails delivered successfully.",
			},
			[]string{"campaign"},
		),
		deliveriesFailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mailblast",
				Name:      "deliveries_failed_total",
				Help:      "Total number of campaign deliveries recorded as failed, by reason.",
			},
			[]string{"campaign", "reason"},
		),
		deliveriesSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mailblast",
				Name:      "deliveries_skipped_total",
				Help:      "Total number of recipients skipped because a live ledger row already existed.",
			},
			[]string{"campaign"},
		),
		sendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "mailblast",
				Name:      "send_duration_seconds",
				Help:      "Outbound transport send duration in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"campaign"},
		),
		dispatchInflight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "mailblast",
				Name:      "dispatch_inflight",
				Help:      "Current number of in-flight delivery attempts.",
			},
			[]string{"campaign"},
		),
		batchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mailblast",
				Name:      "batches_total",
				Help:      "Total number of dispatched recipient batches.",
			},
			[]string{"campaign"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.deliveriesSentTotal,
		m.deliveriesFailedTotal,
		m.deliveriesSkipped,
		m.sendDuration,
		m.dispatchInflight,
		m.batchesTotal,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncDeliverySent(campaign string) {
	if m == nil {
		return
	}
	m.deliveriesSentTotal.WithLabelValues(campaign).Inc()
}

func (m *Metrics) IncDeliveryFailed(campaign, reason string) {
	if m == nil {
		return
	}
	m.deliveriesFailedTotal.WithLabelValues(campaign, reason).Inc()
}

func (m *Metrics) IncDeliverySkipped(campaign string) {
	if m == nil {
		return
	}
	m.deliveriesSkipped.WithLabelValues(campaign).Inc()
}

func (m *Metrics) ObserveSendDuration(campaign string, d time.Duration) {
	if m == nil {
		return
	}
	m.sendDuration.WithLabelValues(campaign).Observe(d.Seconds())
}

func (m *Metrics) IncDispatchInFlight(campaign string) {
	if m == nil {
		return
	}
	m.dispatchInflight.WithLabelValues(campaign).Inc()
}

func (m *Metrics) DecDispatchInFlight(campaign string) {
	if m == nil {
		return
	}
	m.dispatchInflight.WithLabelValues(campaign).Dec()
}

func (m *Metrics) IncBatch(campaign string) {
	if m == nil {
		return
	}
	m.batchesTotal.WithLabelValues(campaign).Inc()
}
