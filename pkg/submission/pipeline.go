package submission

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-creditform/pkg/metrics"
	"github.com/goliatone/go-creditform/pkg/notify"
	"github.com/goliatone/go-creditform/pkg/validation"
)

const (
	// DefaultEndpoint is the classifier address used when none is configured.
	DefaultEndpoint = "http://127.0.0.1:5000/predict"
	// DefaultTimeout bounds a single classifier request.
	DefaultTimeout = 10 * time.Second
	// ScoreKey is the response member holding the predicted class.
	ScoreKey = "predicted_credit_score"

	// DefaultMaxResponseBytes caps how much of a response body is read.
	DefaultMaxResponseBytes int64 = 1 << 20
)

// Envelope is the request body sent to the classifier.
type Envelope struct {
	UserInput *validation.Payload `json:"user_input"`
}

// Result describes a successful classifier exchange.
type Result struct {
	AttemptID  string
	StatusCode int
	// Raw is the unmodified response body.
	Raw []byte
	// Body is Raw decoded as generic JSON.
	Body any
	// Score is the predicted_credit_score member when present as a string.
	Score    string
	Duration time.Duration
}

// Pipeline posts validated payloads to the classifier and reports every
// attempt to a notifier exactly once.
type Pipeline struct {
	endpoint     string
	client       *http.Client
	timeout      time.Duration
	notifier     notify.Notifier
	messages     *notify.Messages
	logger       *zap.Logger
	metrics      metrics.Recorder
	newAttemptID func() string
	maxBody      int64
}

// New builds a pipeline for endpoint.
func New(endpoint string, opts ...Option) (*Pipeline, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, ErrEmptyEndpoint
	}
	p := &Pipeline{
		endpoint:     endpoint,
		client:       http.DefaultClient,
		timeout:      DefaultTimeout,
		notifier:     notify.Discard,
		messages:     notify.DefaultMessages(),
		logger:       zap.NewNop(),
		metrics:      metrics.Noop{},
		newAttemptID: uuid.NewString,
		maxBody:      DefaultMaxResponseBytes,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	p.logger = p.logger.Named("submission")
	return p, nil
}

// Endpoint returns the classifier URL.
func (p *Pipeline) Endpoint() string {
	return p.endpoint
}

// Submit posts payload wrapped in Envelope. On failure the returned error is
// a *TransportError or *ResponseFormatError. The notifier is invoked once for
// every call that reaches the network step, unless the caller abandoned the
// attempt (see ContextWithAbandonCheck). Notifier errors are logged and do
// not change the outcome.
func (p *Pipeline) Submit(ctx context.Context, payload *validation.Payload) (Result, error) {
	if payload == nil {
		return Result{}, ErrNoPayload
	}
	if ctx == nil {
		ctx = context.Background()
	}

	attempt := p.newAttemptID()
	logger := p.logger.With(zap.String("attempt_id", attempt))

	start := time.Now()
	result, err := p.exchange(ctx, attempt, payload)
	result.AttemptID = attempt
	result.Duration = time.Since(start)

	p.metrics.ObserveSubmission(outcome(err), result.Duration)
	if errors.Is(err, ErrResponseTooLarge) {
		logger.Warn("classifier response too large",
			zap.Int64("limit_bytes", p.maxBody),
			zap.Int("status", result.StatusCode),
		)
	}
	if err != nil {
		logger.Warn("submission failed",
			zap.String("error_kind", ErrorKind(err)),
			zap.Int("status", result.StatusCode),
			zap.ByteString("body", result.Raw),
			zap.Duration("duration", result.Duration),
			zap.Error(err),
		)
	} else {
		logger.Info("classifier response",
			zap.Int("status", result.StatusCode),
			zap.String("score", result.Score),
			zap.ByteString("body", result.Raw),
			zap.Duration("duration", result.Duration),
		)
	}

	if abandoned(ctx) {
		logger.Debug("attempt abandoned, notification dropped")
		return result, err
	}
	p.report(ctx, logger, result, err)
	return result, err
}

type abandonKey struct{}

// ContextWithAbandonCheck attaches fn to ctx. Submit calls it once the
// exchange resolves; when it reports true the outcome is still logged and
// measured but not sent to the notifier.
func ContextWithAbandonCheck(ctx context.Context, fn func() bool) context.Context {
	return context.WithValue(ctx, abandonKey{}, fn)
}

func abandoned(ctx context.Context) bool {
	fn, _ := ctx.Value(abandonKey{}).(func() bool)
	return fn != nil && fn()
}

func (p *Pipeline) exchange(ctx context.Context, attempt string, payload *validation.Payload) (Result, error) {
	var result Result

	body, err := json.Marshal(Envelope{UserInput: payload})
	if err != nil {
		return result, &TransportError{AttemptID: attempt, Err: fmt.Errorf("encode payload: %w", err)}
	}

	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return result, &TransportError{AttemptID: attempt, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", attempt)

	resp, err := p.client.Do(req)
	if err != nil {
		return result, &TransportError{AttemptID: attempt, Err: err}
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode
	raw, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBody+1))
	tooLarge := int64(len(raw)) > p.maxBody
	if tooLarge {
		raw = raw[:p.maxBody]
	}
	result.Raw = raw
	if err != nil {
		return result, &TransportError{AttemptID: attempt, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result, &TransportError{
			AttemptID:  attempt,
			StatusCode: resp.StatusCode,
			Body:       raw,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	if tooLarge {
		return result, &ResponseFormatError{
			AttemptID:  attempt,
			StatusCode: resp.StatusCode,
			Body:       raw,
			Err:        fmt.Errorf("%w: limit is %d bytes", ErrResponseTooLarge, p.maxBody),
		}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return result, &ResponseFormatError{AttemptID: attempt, StatusCode: resp.StatusCode, Err: errEmptyBody}
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return result, &ResponseFormatError{AttemptID: attempt, StatusCode: resp.StatusCode, Body: raw, Err: err}
	}
	result.Body = decoded
	result.Score = extractScore(decoded)
	return result, nil
}

func extractScore(body any) string {
	obj, ok := body.(map[string]any)
	if !ok {
		return ""
	}
	score, _ := obj[ScoreKey].(string)
	return strings.TrimSpace(score)
}

func (p *Pipeline) report(ctx context.Context, logger *zap.Logger, result Result, err error) {
	n := notify.Notification{AttemptID: result.AttemptID}
	var data map[string]any
	if err == nil {
		n.Kind = notify.KindSuccess
		n.Detail = result.Body
		data = map[string]any{
			"score":      result.Score,
			"raw":        string(result.Raw),
			"attempt_id": result.AttemptID,
		}
	} else {
		n.Kind = notify.KindFailure
		n.Detail = err
		data = map[string]any{
			"reason":     failureReason(err),
			"kind":       ErrorKind(err),
			"status":     result.StatusCode,
			"attempt_id": result.AttemptID,
		}
	}

	title, desc, renderErr := p.messages.Render(n.Kind, data)
	if renderErr != nil {
		logger.Error("render notification", zap.Error(renderErr))
		title, desc = fallbackText(n.Kind, data)
	}
	n.Title, n.Description = title, desc

	if notifyErr := p.notifier.Notify(ctx, n); notifyErr != nil {
		logger.Warn("notifier failed", zap.Error(notifyErr))
	}
}

func fallbackText(kind notify.Kind, data map[string]any) (string, string) {
	if kind == notify.KindSuccess {
		return "Credit score prediction ready", fmt.Sprint(data["score"])
	}
	return "Submission failed", fmt.Sprint(data["reason"])
}

func failureReason(err error) string {
	switch e := err.(type) {
	case *TransportError:
		switch {
		case e.StatusCode != 0:
			return "The classifier rejected the request"
		case e.Timeout():
			return "The classifier did not respond in time"
		default:
			return "The classifier could not be reached"
		}
	case *ResponseFormatError:
		if errors.Is(e.Err, ErrResponseTooLarge) {
			return "The classifier response was too large"
		}
		return "The classifier returned an unreadable response"
	}
	return "The request could not be completed"
}

func outcome(err error) string {
	switch ErrorKind(err) {
	case "":
		return metrics.OutcomeSuccess
	case KindStatus:
		return metrics.OutcomeStatus
	case KindResponseFormat:
		return metrics.OutcomeResponseShape
	default:
		return metrics.OutcomeTransport
	}
}
