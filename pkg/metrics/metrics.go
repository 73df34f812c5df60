package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Submission outcome labels.
const (
	OutcomeSuccess       = "success"
	OutcomeTransport     = "transport_error"
	OutcomeStatus        = "status_error"
	OutcomeResponseShape = "response_error"
)

// Recorder receives pipeline and validation measurements.
type Recorder interface {
	ObserveSubmission(outcome string, duration time.Duration)
	ObserveValidationFailure(field, cause string)
}

// Noop discards every measurement.
type Noop struct{}

func (Noop) ObserveSubmission(string, time.Duration)  {}
func (Noop) ObserveValidationFailure(string, string) {}

// Prometheus records measurements as Prometheus collectors.
type Prometheus struct {
	submissions        *prometheus.CounterVec
	submissionDuration *prometheus.HistogramVec
	validationFailures *prometheus.CounterVec
}

// NewPrometheus creates the collectors and registers them with reg. A nil
// reg uses prometheus.DefaultRegisterer. Collectors already registered by a
// previous call are reused.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	p := &Prometheus{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "creditform",
			Name:      "submissions_total",
			Help:      "Submission attempts that reached the classifier, by outcome.",
		}, []string{"outcome"}),
		submissionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "creditform",
			Name:      "submission_duration_seconds",
			Help:      "Round trip time of classifier requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		validationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "creditform",
			Name:      "validation_failures_total",
			Help:      "Field validation failures, by field and cause.",
		}, []string{"field", "cause"}),
	}

	var err error
	if p.submissions, err = register(reg, p.submissions); err != nil {
		return nil, err
	}
	if p.submissionDuration, err = register(reg, p.submissionDuration); err != nil {
		return nil, err
	}
	if p.validationFailures, err = register(reg, p.validationFailures); err != nil {
		return nil, err
	}
	return p, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// ObserveSubmission counts an attempt and records its latency.
func (p *Prometheus) ObserveSubmission(outcome string, duration time.Duration) {
	p.submissions.WithLabelValues(outcome).Inc()
	p.submissionDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// ObserveValidationFailure counts one field error.
func (p *Prometheus) ObserveValidationFailure(field, cause string) {
	p.validationFailures.WithLabelValues(field, cause).Inc()
}
