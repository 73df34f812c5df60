package form

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/goliatone/go-creditform/pkg/schema"
	"github.com/goliatone/go-creditform/pkg/submission"
	"github.com/goliatone/go-creditform/pkg/testsupport"
	"github.com/goliatone/go-creditform/pkg/validation"
)

const referenceWireBody = `{"user_input":{"age":35,"gender":"male","income":50000,"education":"bachelor's degree","marital_status":"single","num_children":0,"home_ownership":"owned"}}`

// classifier answers every request with status and records the bodies. When
// gate is set each request waits for it after signalling started.
type classifier struct {
	status  int
	gate    chan struct{}
	started chan struct{}

	mu     sync.Mutex
	bodies []string
}

func (c *classifier) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	c.mu.Lock()
	c.bodies = append(c.bodies, string(raw))
	c.mu.Unlock()
	if c.started != nil {
		c.started <- struct{}{}
	}
	if c.gate != nil {
		<-c.gate
	}
	w.WriteHeader(c.status)
}

func (c *classifier) received() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.bodies...)
}

func newPipelineSession(t *testing.T, c *classifier) (*Session, *testsupport.RecordingNotifier) {
	t.Helper()
	srv := httptest.NewServer(c)
	t.Cleanup(srv.Close)

	rec := testsupport.NewRecordingNotifier()
	p, err := submission.New(srv.URL+"/predict", submission.WithHTTPClient(srv.Client()), submission.WithNotifier(rec))
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	return New(validation.New(schema.CreditScore()), p, WithValues(testsupport.ReferenceInput())), rec
}

func validatedJSON(t *testing.T, s State) string {
	t.Helper()
	if s.Validated == nil {
		t.Fatalf("expected validated values, got none")
	}
	raw, err := s.Validated.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal validated: %v", err)
	}
	return string(raw)
}

func TestResubmitAfterStatusFailureRepeatsRequest(t *testing.T) {
	c := &classifier{status: http.StatusServiceUnavailable}
	sess, rec := newPipelineSession(t, c)

	first, err := sess.Submit(context.Background())
	var transport *submission.TransportError
	if !errors.As(err, &transport) || transport.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 transport error, got %v", err)
	}
	firstValidated := validatedJSON(t, first)

	second, err := sess.Submit(context.Background())
	if !errors.As(err, &transport) {
		t.Fatalf("expected transport error on resubmit, got %v", err)
	}
	if got := validatedJSON(t, second); got != firstValidated {
		t.Fatalf("validated values changed across attempts:\n%s\n%s", firstValidated, got)
	}
	if second.Phase != PhaseFailed || second.Failure != FailureTransport {
		t.Fatalf("unexpected state after resubmit: %+v", second)
	}

	bodies := c.received()
	if len(bodies) != 2 {
		t.Fatalf("expected two requests, got %d", len(bodies))
	}
	for i, body := range bodies {
		if body != referenceWireBody {
			t.Fatalf("request %d body mismatch:\n%s", i, body)
		}
	}

	sent := rec.All()
	if len(sent) != 2 {
		t.Fatalf("expected one failure notification per attempt, got %d", len(sent))
	}
	for _, n := range sent {
		if n.Description != "The classifier rejected the request (HTTP 503)" {
			t.Fatalf("unexpected notification %+v", n)
		}
	}
}

func resetSession(s *Session) error { return s.Reset(context.Background()) }

func discardSession(s *Session) error {
	s.Discard()
	return nil
}

func TestAbandonedAttemptIsNotNotified(t *testing.T) {
	cases := []struct {
		name    string
		abandon func(*Session) error
	}{
		{name: "reset", abandon: resetSession},
		{name: "discard", abandon: discardSession},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := &classifier{
				status:  http.StatusInternalServerError,
				gate:    make(chan struct{}),
				started: make(chan struct{}, 1),
			}
			sess, rec := newPipelineSession(t, c)

			type outcome struct {
				state State
				err   error
			}
			done := make(chan outcome, 1)
			go func() {
				state, err := sess.Submit(context.Background())
				done <- outcome{state, err}
			}()
			<-c.started

			if err := tc.abandon(sess); err != nil {
				t.Fatalf("abandon: %v", err)
			}
			close(c.gate)
			got := <-done

			if got.err != nil {
				t.Fatalf("late result must be ignored, got %v", got.err)
			}
			if got.state.Failure != FailureNone {
				t.Fatalf("late result must not change state, got %+v", got.state)
			}
			if rec.Len() != 0 {
				t.Fatalf("abandoned attempt must not notify, got %+v", rec.All())
			}
		})
	}
}
