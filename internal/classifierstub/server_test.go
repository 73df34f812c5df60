package classifierstub

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-creditform/pkg/notify"
	"github.com/goliatone/go-creditform/pkg/openapi"
	"github.com/goliatone/go-creditform/pkg/schema"
	"github.com/goliatone/go-creditform/pkg/submission"
	"github.com/goliatone/go-creditform/pkg/validation"
)

const referenceBody = `{"user_input":{"age":35,"gender":"male","income":50000,"education":"bachelor's degree","marital_status":"single","num_children":0,"home_ownership":"owned"}}`

func newTestServer(t *testing.T) (*httptest.Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	stub, err := New(WithRegistry(reg))
	if err != nil {
		t.Fatalf("new stub: %v", err)
	}
	srv := httptest.NewServer(stub.Handler())
	t.Cleanup(srv.Close)
	return srv, reg
}

func post(t *testing.T, url, body string) (int, string) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(raw)
}

func TestPredictReferenceInput(t *testing.T) {
	srv, _ := newTestServer(t)

	status, body := post(t, srv.URL+"/predict", referenceBody)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	if body != `{"predicted_credit_score":"High"}` {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestPredictRejectsInvalidInput(t *testing.T) {
	srv, _ := newTestServer(t)

	status, body := post(t, srv.URL+"/predict", `{"user_input":{"age":0,"gender":"robot"}}`)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	var resp errorResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Fields) != 7 {
		t.Fatalf("expected every field reported, got %v", resp.Fields)
	}
	if resp.Fields["age"] != "Age must be greater than 0." {
		t.Fatalf("unexpected age message %q", resp.Fields["age"])
	}

	for _, bad := range []string{`not json`, `{}`} {
		if status, _ := post(t, srv.URL+"/predict", bad); status != http.StatusBadRequest {
			t.Fatalf("expected 400 for %q, got %d", bad, status)
		}
	}
}

func TestAuxiliaryRoutes(t *testing.T) {
	srv, _ := newTestServer(t)
	post(t, srv.URL+"/predict", referenceBody)

	get := func(path string) string {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("get %s: status %d", path, resp.StatusCode)
		}
		raw, _ := io.ReadAll(resp.Body)
		return string(raw)
	}

	if got := get("/healthz"); got != "online" {
		t.Fatalf("unexpected health body %q", got)
	}
	if got := get("/metrics"); !strings.Contains(got, `classifierstub_predictions_total{score="High"} 1`) {
		t.Fatalf("prediction counter missing from metrics:\n%s", got)
	}

	contract, err := openapi.LoadURL(context.Background(), srv.URL+"/openapi.yaml")
	if err != nil {
		t.Fatalf("load served contract: %v", err)
	}
	if _, err := contract.Schema(""); err != nil {
		t.Fatalf("served contract schema: %v", err)
	}
}

func TestRuleTree(t *testing.T) {
	base := Features{Age: 35, Income: 50000, Education: 2, HomeOwner: true}
	cases := map[string]struct {
		mutate func(*Features)
		want   string
	}{
		"reference":      {func(*Features) {}, ScoreHigh},
		"low income":     {func(f *Features) { f.Income = 20000 }, ScoreLow},
		"high income":    {func(f *Features) { f.Income = 150000; f.Education = 0 }, ScoreHigh},
		"renting":        {func(f *Features) { f.HomeOwner = false }, ScoreAverage},
		"young renter":   {func(f *Features) { f.HomeOwner = false; f.Age = 22; f.Education = 0 }, ScoreLow},
		"large family":   {func(f *Features) { f.NumChildren = 5 }, ScoreAverage},
		"married doctor": {func(f *Features) { f.Married = true; f.Education = 4 }, ScoreHigh},
	}
	for name, tc := range cases {
		f := base
		tc.mutate(&f)
		if got := (RuleTree{}).Predict(f); got != tc.want {
			t.Fatalf("%s: got %s, want %s", name, got, tc.want)
		}
	}
}

func TestEncode(t *testing.T) {
	res := validation.Validate(schema.CreditScore(), map[string]string{
		"age":            "41",
		"gender":         "Female",
		"income":         "72000.5",
		"education":      "Master's Degree",
		"marital_status": "married",
		"num_children":   "2",
		"home_ownership": "rented",
	})
	if !res.Valid() {
		t.Fatalf("input invalid: %v", res.Err())
	}
	got, err := Encode(res.Payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := Features{Age: 41, Female: true, Income: 72000.5, Education: 3, Married: true, NumChildren: 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("features mismatch (-want +got):\n%s", diff)
	}
}

func TestPipelineAgainstStub(t *testing.T) {
	srv, _ := newTestServer(t)

	var sent []notify.Notification
	p, err := submission.New(srv.URL+"/predict", submission.WithNotifier(notify.Func(func(_ context.Context, n notify.Notification) error {
		sent = append(sent, n)
		return nil
	})))
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}

	res := validation.Validate(schema.CreditScore(), map[string]string{
		"age":            "35",
		"gender":         "male",
		"income":         "50000",
		"education":      "bachelor's degree",
		"marital_status": "single",
		"num_children":   "0",
		"home_ownership": "owned",
	})
	result, err := p.Submit(context.Background(), res.Payload)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != ScoreHigh {
		t.Fatalf("expected High, got %q", result.Score)
	}
	if len(sent) != 1 || sent[0].Description != "Predicted credit score: High" {
		t.Fatalf("unexpected notifications: %+v", sent)
	}
}

func TestCustomClassifierAndSchema(t *testing.T) {
	adults := schema.CreditScore()
	for i, f := range adults.Fields {
		if f.Name == schema.FieldAge {
			adults.Fields[i].Constraint = schema.NumericBound{Min: 18}
		}
	}

	var seen []Features
	stub, err := New(
		WithSchema(adults),
		WithClassifier(ClassifierFunc(func(f Features) string {
			seen = append(seen, f)
			return ScoreAverage
		})),
	)
	if err != nil {
		t.Fatalf("new stub: %v", err)
	}
	srv := httptest.NewServer(stub.Handler())
	defer srv.Close()

	status, body := post(t, srv.URL+"/predict", referenceBody)
	if status != http.StatusOK || body != `{"predicted_credit_score":"Average"}` {
		t.Fatalf("unexpected response %d %s", status, body)
	}
	if len(seen) != 1 || seen[0].Age != 35 || seen[0].Female {
		t.Fatalf("unexpected features %+v", seen)
	}

	minor := strings.Replace(referenceBody, `"age":35`, `"age":17`, 1)
	status, body = post(t, srv.URL+"/predict", minor)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for minor, got %d", status)
	}
	var resp errorResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := resp.Fields[schema.FieldAge]; !ok || len(resp.Fields) != 1 {
		t.Fatalf("expected only an age error, got %v", resp.Fields)
	}
	if len(seen) != 1 {
		t.Fatalf("rejected input must not reach the classifier")
	}
}
