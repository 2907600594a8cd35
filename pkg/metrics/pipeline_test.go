package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestPipelineMetricsExportsFamilies(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewPipelineMetrics(reg)

	metrics.ObserveCheckout("success", 180*time.Millisecond)
	metrics.ObserveCheckout("failure", 90*time.Millisecond)
	metrics.IncCompletion("navigation")
	metrics.IncCompletion("")
	metrics.IncRoutingFailure()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "checkout_total", "outcome", "success"); err != nil {
		t.Fatalf("fetch checkout success: %v", err)
	} else if got != 1 {
		t.Fatalf("expected checkout success=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "payment_completions_total", "trigger", "navigation"); err != nil {
		t.Fatalf("fetch completions: %v", err)
	} else if got != 1 {
		t.Fatalf("expected completions=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "payment_completions_total", "trigger", "unknown"); err != nil {
		t.Fatalf("fetch unlabeled completions: %v", err)
	} else if got != 1 {
		t.Fatalf("expected empty trigger to normalize to unknown, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "checkout_duration_seconds", "outcome", "success"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}

	routing := findMetricFamily(mfs, "pickup_route_failures_total")
	if routing == nil || len(routing.GetMetric()) != 1 {
		t.Fatalf("routing failure counter missing")
	}
	if routing.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected one routing failure")
	}
}

func TestPipelineMetricsNilReceiverIsSafe(t *testing.T) {
	var metrics *PipelineMetrics
	metrics.ObserveCheckout("success", time.Second)
	metrics.IncCompletion("dismiss")
	metrics.IncRoutingFailure()

	empty := NewPipelineMetrics(nil)
	empty.ObserveCheckout("success", time.Second)
	empty.IncRoutingFailure()
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
