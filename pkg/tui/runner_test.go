package tui

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-creditform/pkg/form"
	"github.com/goliatone/go-creditform/pkg/schema"
	"github.com/goliatone/go-creditform/pkg/submission"
	"github.com/goliatone/go-creditform/pkg/testsupport"
	"github.com/goliatone/go-creditform/pkg/validation"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	confirm      []bool
	infoMessages []string
	prompted     []string
	validators   []func(string) error
	pageSizes    []int
	inputPos     int
	selectPos    int
	confirmPos   int
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	s.prompted = append(s.prompted, cfg.Message)
	s.validators = append(s.validators, cfg.Validator)
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	s.prompted = append(s.prompted, cfg.Message)
	s.pageSizes = append(s.pageSizes, cfg.PageSize)
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

type scriptedSubmitter struct {
	errs     []error
	payloads []*validation.Payload
}

func (s *scriptedSubmitter) Submit(_ context.Context, payload *validation.Payload) (submission.Result, error) {
	s.payloads = append(s.payloads, payload)
	if len(s.errs) == 0 {
		return submission.Result{Score: "High"}, nil
	}
	err := s.errs[0]
	s.errs = s.errs[1:]
	return submission.Result{}, err
}

// Select answers for gender, education, marital status and home ownership.
var referenceSelects = []int{0, 2, 0, 1}

func newRunner(t *testing.T, driver PromptDriver, sub form.Submitter, values map[string]string, opts ...Option) *Runner {
	t.Helper()
	session := form.New(validation.New(schema.CreditScore()), sub, form.WithValues(values))
	r, err := New(session, append([]Option{WithPromptDriver(driver)}, opts...)...)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	return r
}

func TestRunPromptsEveryFieldInOrder(t *testing.T) {
	driver := &stubDriver{inputs: []string{"35", "50000", "0"}, selectIdx: referenceSelects}
	sub := &scriptedSubmitter{}
	r := newRunner(t, driver, sub, nil)

	state, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if state.Phase != form.PhaseSucceeded {
		t.Fatalf("expected success, got %s", state.Phase)
	}

	wantPrompts := []string{"Age", "Gender", "Income", "Education", "Marital status", "Number of children", "Home ownership"}
	if diff := cmp.Diff(wantPrompts, driver.prompted); diff != "" {
		t.Fatalf("prompt order mismatch (-want +got):\n%s", diff)
	}
	if len(sub.payloads) != 1 {
		t.Fatalf("expected one submission, got %d", len(sub.payloads))
	}
	raw, err := sub.payloads[0].MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"age":35,"gender":"male","income":50000,"education":"bachelor's degree","marital_status":"single","num_children":0,"home_ownership":"owned"}`
	if string(raw) != want {
		t.Fatalf("unexpected payload %s", raw)
	}
}

func TestRunRepromptsOnlyInvalidFields(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"0", "50000", "-1", "35", "2"},
		selectIdx: referenceSelects,
	}
	sub := &scriptedSubmitter{}
	r := newRunner(t, driver, sub, nil)

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	wantInfo := []string{"Age must be greater than 0.", "Number of children must be 0 or more."}
	if diff := cmp.Diff(wantInfo, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
	if got := driver.prompted[7:]; !cmp.Equal(got, []string{"Age", "Number of children"}) {
		t.Fatalf("expected only invalid fields re-prompted, got %v", got)
	}
	if len(sub.payloads) != 1 {
		t.Fatalf("invalid attempts must not reach the submitter, got %d calls", len(sub.payloads))
	}
	if n, _ := sub.payloads[0].Int("num_children"); n != 2 {
		t.Fatalf("expected corrected value, got %d", n)
	}
}

func TestRunRetriesAfterTransportFailure(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"35", "50000", "0"},
		selectIdx: referenceSelects,
		confirm:   []bool{true},
	}
	sub := &scriptedSubmitter{errs: []error{&submission.TransportError{StatusCode: 502}}}
	r := newRunner(t, driver, sub, nil)

	state, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if state.Phase != form.PhaseSucceeded || len(sub.payloads) != 2 {
		t.Fatalf("expected a successful resubmission, got %s after %d calls", state.Phase, len(sub.payloads))
	}
	if len(driver.prompted) != 7 {
		t.Fatalf("retry must not re-prompt fields, got %v", driver.prompted)
	}
}

func TestRunStopsWhenRetryDeclined(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"35", "50000", "0"},
		selectIdx: referenceSelects,
		confirm:   []bool{false},
	}
	failure := &submission.ResponseFormatError{Err: errors.New("bad json")}
	sub := &scriptedSubmitter{errs: []error{failure}}
	r := newRunner(t, driver, sub, nil)

	state, err := r.Run(context.Background())
	if !errors.Is(err, failure) {
		t.Fatalf("expected response failure, got %v", err)
	}
	if state.Failure != form.FailureResponse || state.Validated == nil {
		t.Fatalf("unexpected state: %+v", state)
	}
}

func TestRunSkipsPrefilledFields(t *testing.T) {
	values := testsupport.WithInput(map[string]string{schema.FieldGender: "Male"})
	driver := &stubDriver{}
	sub := &scriptedSubmitter{}
	r := newRunner(t, driver, sub, values, WithSkipPrefilled(), WithoutRetryPrompt())

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(driver.prompted) != 0 {
		t.Fatalf("expected no prompts, got %v", driver.prompted)
	}
	if gender, _ := sub.payloads[0].String("gender"); gender != "male" {
		t.Fatalf("expected canonical enum value, got %q", gender)
	}
}

func TestRunAbort(t *testing.T) {
	driver := &abortingDriver{}
	r := newRunner(t, driver, &scriptedSubmitter{}, nil)

	if _, err := r.Run(context.Background()); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

type abortingDriver struct{ stubDriver }

func (a *abortingDriver) Input(context.Context, InputConfig) (string, error) {
	return "", ErrAborted
}

func TestNewRequiresDriver(t *testing.T) {
	session := form.New(validation.New(schema.CreditScore()), &scriptedSubmitter{})
	if _, err := New(session); err == nil {
		t.Fatalf("expected missing driver error")
	}
	if _, err := New(nil, WithPromptDriver(&stubDriver{})); err == nil {
		t.Fatalf("expected missing session error")
	}
}

func TestRunInlineValidationAndPageSize(t *testing.T) {
	driver := &stubDriver{inputs: []string{"35", "50000", "0"}, selectIdx: referenceSelects}
	r := newRunner(t, driver, &scriptedSubmitter{}, nil, WithInlineValidation(), WithPageSize(3))

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if diff := cmp.Diff([]int{3, 3, 3, 3}, driver.pageSizes); diff != "" {
		t.Fatalf("page size mismatch (-want +got):\n%s", diff)
	}
	if len(driver.validators) != 3 {
		t.Fatalf("expected three text prompts, got %d", len(driver.validators))
	}

	age, children := driver.validators[0], driver.validators[2]
	if age == nil || children == nil {
		t.Fatalf("expected validators on text prompts")
	}
	if err := age("0"); err == nil || err.Error() != "Age must be greater than 0." {
		t.Fatalf("unexpected age check: %v", err)
	}
	if err := age("35"); err != nil {
		t.Fatalf("valid age rejected: %v", err)
	}
	var fe *validation.FieldError
	if err := children("1.5"); !errors.As(err, &fe) || fe.Cause != schema.CauseType {
		t.Fatalf("expected type error for fractional children, got %v", err)
	}
}

func TestRunWithoutInlineValidationLeavesPromptsOpen(t *testing.T) {
	driver := &stubDriver{inputs: []string{"35", "50000", "0"}, selectIdx: referenceSelects}
	r := newRunner(t, driver, &scriptedSubmitter{}, nil)

	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	for i, v := range driver.validators {
		if v != nil {
			t.Fatalf("prompt %d has a validator", i)
		}
	}
	for _, size := range driver.pageSizes {
		if size != 7 {
			t.Fatalf("expected default page size 7, got %d", size)
		}
	}
}
