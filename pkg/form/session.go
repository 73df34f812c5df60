package form

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/goliatone/go-creditform/pkg/metrics"
	"github.com/goliatone/go-creditform/pkg/schema"
	"github.com/goliatone/go-creditform/pkg/submission"
	"github.com/goliatone/go-creditform/pkg/validation"
)

var (
	// ErrSubmitInFlight is returned when Submit is called while an attempt
	// is validating or submitting.
	ErrSubmitInFlight = errors.New("form: submission already in flight")
	// ErrDiscarded is returned by operations started after Discard.
	ErrDiscarded = errors.New("form: session discarded")
)

// Submitter delivers a validated payload. *submission.Pipeline satisfies it.
// The context passed to Submit carries a submission.ContextWithAbandonCheck
// that reports true once the attempt was reset or discarded.
type Submitter interface {
	Submit(ctx context.Context, payload *validation.Payload) (submission.Result, error)
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records validation failures.
func WithMetrics(rec metrics.Recorder) Option {
	return func(s *Session) {
		if rec != nil {
			s.metrics = rec
		}
	}
}

// WithValues pre-fills raw values, for example from command line flags.
func WithValues(values map[string]string) Option {
	return func(s *Session) {
		for field, value := range values {
			s.state = Reduce(s.state, EditField{Field: field, Value: value})
		}
	}
}

// Session owns one form. All methods are safe for concurrent use; at most
// one attempt is in flight at a time.
type Session struct {
	mu         sync.Mutex
	engine     *validation.Engine
	submitter  Submitter
	machine    *fsm.FSM
	state      State
	generation uint64
	discarded  bool
	logger     *zap.Logger
	metrics    metrics.Recorder
}

// New creates an idle session.
func New(engine *validation.Engine, submitter Submitter, opts ...Option) *Session {
	s := &Session{
		engine:    engine,
		submitter: submitter,
		state:     Initial(),
		logger:    zap.NewNop(),
		metrics:   metrics.Noop{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.logger = s.logger.Named("form")
	s.machine = newMachine(s.logger)
	return s
}

// Schema returns the schema the session validates against.
func (s *Session) Schema() schema.Schema {
	return s.engine.Schema()
}

// State returns a snapshot of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	return Phase(s.machine.Current())
}

// Update stores the raw text for field.
func (s *Session) Update(field, raw string) error {
	if _, ok := s.engine.Schema().Field(field); !ok {
		return fmt.Errorf("form: unknown field %q", field)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.discarded {
		return ErrDiscarded
	}
	s.state = Reduce(s.state, EditField{Field: field, Value: raw})
	return nil
}

// Submit validates the current values and, when they pass, hands the payload
// to the submitter. Validation failures are returned as validation.Errors and
// never reach the network. Transport and response failures are returned as
// the submitter reported them. The returned State reflects the outcome.
func (s *Session) Submit(ctx context.Context) (State, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	if s.discarded {
		s.mu.Unlock()
		return State{}, ErrDiscarded
	}
	if err := s.machine.Event(ctx, EventValidate); err != nil {
		snapshot := s.snapshot()
		s.mu.Unlock()
		var invalid fsm.InvalidEventError
		if errors.As(err, &invalid) {
			return snapshot, ErrSubmitInFlight
		}
		return snapshot, fmt.Errorf("form: begin validation: %w", err)
	}
	s.state = Reduce(s.state, BeginValidation{})

	res := s.engine.Validate(s.state.Raw)
	if !res.Valid() {
		s.mustFire(ctx, EventReject)
		s.state = Reduce(s.state, ValidationFailed{Errors: res.Errors})
		for _, name := range res.Errors.Fields() {
			s.metrics.ObserveValidationFailure(name, string(res.Errors[name].Cause))
		}
		s.logger.Info("validation failed", zap.Strings("fields", res.Errors.Fields()))
		snapshot := s.snapshot()
		s.mu.Unlock()
		return snapshot, res.Errors
	}

	s.mustFire(ctx, EventSubmit)
	s.state = Reduce(s.state, ValidationPassed{Payload: res.Payload})
	generation := s.generation
	payload := res.Payload
	s.mu.Unlock()

	submitCtx := submission.ContextWithAbandonCheck(ctx, func() bool {
		return s.abandoned(generation)
	})
	result, err := s.submitter.Submit(submitCtx, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation {
		s.logger.Debug("ignoring result of abandoned attempt",
			zap.String("attempt_id", result.AttemptID),
			zap.Bool("discarded", s.discarded),
		)
		return s.snapshot(), nil
	}

	if err != nil {
		s.mustFire(ctx, EventFail)
		s.state = Reduce(s.state, SubmissionFailed{Err: err})
		return s.snapshot(), err
	}
	s.mustFire(ctx, EventSucceed)
	s.state = Reduce(s.state, SubmissionSucceeded{Result: result})
	return s.snapshot(), nil
}

// Reset clears every value, error and outcome. An attempt still in flight is
// abandoned and its result ignored.
func (s *Session) Reset(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.discarded {
		return ErrDiscarded
	}
	s.generation++
	if Phase(s.machine.Current()) != PhaseIdle {
		s.mustFire(ctx, EventReset)
	}
	s.state = Reduce(s.state, Reset{})
	return nil
}

// Discard abandons the session. Later calls return ErrDiscarded. A result
// arriving for an in-flight attempt is dropped without notification and its
// Submit call returns the last snapshot with a nil error.
func (s *Session) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.discarded {
		return
	}
	s.discarded = true
	s.generation++
	s.logger.Debug("session discarded", zap.String("phase", s.machine.Current()))
}

// mustFire applies an event the caller has already proven legal. A failure
// indicates a broken transition table.
func (s *Session) mustFire(ctx context.Context, event string) {
	if err := s.machine.Event(ctx, event); err != nil {
		panic(fmt.Sprintf("form: %s from %s: %v", event, s.machine.Current(), err))
	}
}

func (s *Session) abandoned(generation uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discarded || s.generation != generation
}

func (s *Session) snapshot() State {
	out := s.state
	out.Raw = maps.Clone(s.state.Raw)
	out.Errors = maps.Clone(s.state.Errors)
	return out
}
