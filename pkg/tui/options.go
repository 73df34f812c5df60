package tui

import (
	"go.uber.org/zap"
)

// Option configures the Runner.
type Option func(*Runner)

// WithPromptDriver overrides the prompt driver used by the runner.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Runner) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithLogger sets the runner logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithSkipPrefilled skips the first prompt for fields that already hold a
// value, so values passed on the command line are submitted as they are.
// Fields that fail validation are still prompted.
func WithSkipPrefilled() Option {
	return func(r *Runner) {
		r.skipPrefilled = true
	}
}

// WithoutRetryPrompt stops after the first transport or response failure
// instead of asking whether to resubmit.
func WithoutRetryPrompt() Option {
	return func(r *Runner) {
		r.noRetry = true
	}
}

// WithPageSize caps the visible options of select prompts.
func WithPageSize(size int) Option {
	return func(r *Runner) {
		if size > 0 {
			r.pageSize = size
		}
	}
}

// WithInlineValidation rejects invalid text input at the prompt, using the
// same messages as submission. Select prompts only offer valid options.
func WithInlineValidation() Option {
	return func(r *Runner) {
		r.inlineValidation = true
	}
}
