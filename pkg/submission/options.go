package submission

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-creditform/pkg/metrics"
	"github.com/goliatone/go-creditform/pkg/notify"
)

// Option configures the pipeline.
type Option func(*Pipeline)

// WithHTTPClient overrides the HTTP client. Its Timeout is left untouched
// unless WithTimeout is also supplied.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Pipeline) {
		if client != nil {
			p.client = client
		}
	}
}

// WithTimeout caps the duration of a single request.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// WithNotifier sets the outcome notifier.
func WithNotifier(n notify.Notifier) Option {
	return func(p *Pipeline) {
		if n != nil {
			p.notifier = n
		}
	}
}

// WithMessages overrides the notification text templates.
func WithMessages(m *notify.Messages) Option {
	return func(p *Pipeline) {
		if m != nil {
			p.messages = m
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(rec metrics.Recorder) Option {
	return func(p *Pipeline) {
		if rec != nil {
			p.metrics = rec
		}
	}
}

// WithAttemptIDFunc overrides how attempt identifiers are generated.
func WithAttemptIDFunc(fn func() string) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.newAttemptID = fn
		}
	}
}

// WithMaxResponseBytes caps how much of a response body is read. Larger 2xx
// bodies fail with ErrResponseTooLarge.
func WithMaxResponseBytes(n int64) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxBody = n
		}
	}
}
