package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-creditform/pkg/form"
	"github.com/goliatone/go-creditform/pkg/schema"
	"github.com/goliatone/go-creditform/pkg/validation"
)

// Runner walks a user through a form session in the terminal: it prompts
// every field, submits, re-prompts only the fields that failed validation,
// and offers to resubmit after transport failures. Outcome notifications are
// emitted by the session's submitter, not by the runner.
type Runner struct {
	session       *form.Session
	driver        PromptDriver
	logger        *zap.Logger
	skipPrefilled bool
	noRetry       bool
	pageSize      int

	inlineValidation bool
}

// New constructs a Runner. A prompt driver is required; use NewSurveyDriver
// for an interactive terminal.
func New(session *form.Session, options ...Option) (*Runner, error) {
	if session == nil {
		return nil, errors.New("tui: session is required")
	}
	r := &Runner{
		session:  session,
		logger:   zap.NewNop(),
		pageSize: 7,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		return nil, errors.New("tui: prompt driver is nil")
	}
	r.logger = r.logger.Named("tui")
	return r, nil
}

// Run prompts until the classifier accepts a submission, the user declines
// a retry, or input is aborted. The final session state is returned together
// with the last submission error, if any.
func (r *Runner) Run(ctx context.Context) (form.State, error) {
	if ctx == nil {
		return form.State{}, errors.New("tui: context is required")
	}

	pending := r.initialFields()
	for {
		for _, view := range r.session.Fields() {
			if _, ok := pending[view.Name]; !ok {
				continue
			}
			raw, err := r.prompt(ctx, view)
			if err != nil {
				return r.session.State(), err
			}
			if err := view.Update(raw); err != nil {
				return r.session.State(), err
			}
		}

		state, err := r.session.Submit(ctx)
		if err == nil {
			return state, nil
		}

		var fieldErrs validation.Errors
		switch {
		case errors.As(err, &fieldErrs):
			r.logger.Debug("re-prompting invalid fields", zap.Strings("fields", fieldErrs.Fields()))
			if err := r.reportFieldErrors(ctx, fieldErrs); err != nil {
				return state, err
			}
			pending = make(map[string]struct{}, len(fieldErrs))
			for name := range fieldErrs {
				pending[name] = struct{}{}
			}
		case state.Failure == form.FailureTransport || state.Failure == form.FailureResponse:
			if r.noRetry {
				return state, err
			}
			retry, cerr := r.driver.Confirm(ctx, ConfirmConfig{
				Message: "Submit again?",
				Default: true,
				Help:    "Your answers are kept; nothing needs to be re-entered.",
			})
			if cerr != nil {
				return state, cerr
			}
			if !retry {
				return state, err
			}
			pending = nil
		default:
			return state, err
		}
	}
}

func (r *Runner) initialFields() map[string]struct{} {
	pending := make(map[string]struct{})
	for _, view := range r.session.Fields() {
		if r.skipPrefilled && strings.TrimSpace(view.Value) != "" {
			continue
		}
		pending[view.Name] = struct{}{}
	}
	return pending
}

func (r *Runner) reportFieldErrors(ctx context.Context, errs validation.Errors) error {
	for _, view := range r.session.Fields() {
		fe, ok := errs[view.Name]
		if !ok {
			continue
		}
		if err := r.driver.Info(ctx, fe.Message); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) prompt(ctx context.Context, view form.FieldView) (string, error) {
	help := view.Help
	if view.Requirement != "" {
		if help != "" {
			help += " "
		}
		help += fmt.Sprintf("Must be %s.", view.Requirement)
	}

	if view.Kind == schema.KindEnum {
		defaultIndex := indexOf(view.Options, view.Value)
		if defaultIndex < 0 {
			defaultIndex = 0
		}
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message:      view.Label,
			Options:      view.Options,
			DefaultIndex: defaultIndex,
			Help:         help,
			PageSize:     r.pageSize,
		})
		if err != nil {
			return "", err
		}
		if idx < 0 || idx >= len(view.Options) {
			return "", nil
		}
		return view.Options[idx], nil
	}

	cfg := InputConfig{
		Message: view.Label,
		Default: view.Value,
		Help:    help,
	}
	if r.inlineValidation {
		cfg.Validator = view.Check
	}
	return r.driver.Input(ctx, cfg)
}
