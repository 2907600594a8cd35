package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics records outcomes across the checkout, payment and
// pickup-routing pipeline.
type PipelineMetrics struct {
	checkoutDuration *prometheus.HistogramVec
	checkoutOutcome  *prometheus.CounterVec
	completions      *prometheus.CounterVec
	routingFailures  prometheus.Counter
}

// NewPipelineMetrics registers the pipeline metrics on the provided registerer.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	if reg == nil {
		return &PipelineMetrics{}
	}
	checkoutDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout orchestrations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	checkoutOutcome := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_total",
		Help: "Checkout orchestrations by outcome.",
	}, []string{"outcome"})
	completions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_completions_total",
		Help: "Payment session completions by trigger.",
	}, []string{"trigger"})
	routingFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pickup_route_failures_total",
		Help: "Road route lookups that degraded to markers only.",
	})
	reg.MustRegister(checkoutDuration, checkoutOutcome, completions, routingFailures)
	return &PipelineMetrics{
		checkoutDuration: checkoutDuration,
		checkoutOutcome:  checkoutOutcome,
		completions:      completions,
		routingFailures:  routingFailures,
	}
}

// ObserveCheckout records one checkout orchestration.
func (p *PipelineMetrics) ObserveCheckout(outcome string, duration time.Duration) {
	if p == nil || p.checkoutDuration == nil {
		return
	}
	label := normalizeLabel(outcome)
	p.checkoutDuration.WithLabelValues(label).Observe(duration.Seconds())
	p.checkoutOutcome.WithLabelValues(label).Inc()
}

// IncCompletion counts one payment session completion. Trigger is the
// signal that won the completion race (navigation or dismiss).
func (p *PipelineMetrics) IncCompletion(trigger string) {
	if p == nil || p.completions == nil {
		return
	}
	p.completions.WithLabelValues(normalizeLabel(trigger)).Inc()
}

// IncRoutingFailure counts one degraded pickup route.
func (p *PipelineMetrics) IncRoutingFailure() {
	if p == nil || p.routingFailures == nil {
		return
	}
	p.routingFailures.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
