package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheus(reg)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}

	rec.ObserveSubmission(OutcomeSuccess, 120*time.Millisecond)
	rec.ObserveSubmission(OutcomeStatus, 40*time.Millisecond)
	rec.ObserveSubmission(OutcomeSuccess, 80*time.Millisecond)
	rec.ObserveValidationFailure("age", "bound")

	if got := testutil.ToFloat64(rec.submissions.WithLabelValues(OutcomeSuccess)); got != 2 {
		t.Fatalf("expected 2 successes, got %v", got)
	}
	if got := testutil.ToFloat64(rec.submissions.WithLabelValues(OutcomeStatus)); got != 1 {
		t.Fatalf("expected 1 status error, got %v", got)
	}
	if got := testutil.ToFloat64(rec.validationFailures.WithLabelValues("age", "bound")); got != 1 {
		t.Fatalf("expected 1 validation failure, got %v", got)
	}
}

func TestNewPrometheusReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPrometheus(reg)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := NewPrometheus(reg)
	if err != nil {
		t.Fatalf("second: %v", err)
	}

	first.ObserveValidationFailure("gender", "required")
	if got := testutil.ToFloat64(second.validationFailures.WithLabelValues("gender", "required")); got != 1 {
		t.Fatalf("expected shared collector, got %v", got)
	}

	Noop{}.ObserveSubmission(OutcomeSuccess, time.Second)
}
