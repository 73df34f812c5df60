package openapi

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
)

const (
	// DefaultPath is the predict operation path.
	DefaultPath = "/predict"
	// DefaultEnvelopeKey is the request body member that carries the fields.
	DefaultEnvelopeKey = "user_input"
	// ScoreProperty is the response member holding the predicted class.
	ScoreProperty = "predicted_credit_score"

	jsonMediaType = "application/json"
)

//go:embed classifier.yaml
var classifierContract []byte

// DefaultContract returns a copy of the embedded classifier contract.
func DefaultContract() []byte {
	return append([]byte(nil), classifierContract...)
}

// Options tunes how a contract is read.
type Options struct {
	// Path selects the POST operation that accepts form submissions.
	Path string
	// EnvelopeKey names the request body property wrapping the fields.
	EnvelopeKey string
	// HTTPClient is used by LoadURL. Nil uses a client with RequestTimeout.
	HTTPClient *http.Client
	// RequestTimeout caps LoadURL fetches.
	RequestTimeout time.Duration
}

// Option mutates Options.
type Option func(*Options)

// WithPath overrides DefaultPath.
func WithPath(path string) Option {
	return func(o *Options) {
		if path != "" {
			o.Path = path
		}
	}
}

// WithEnvelopeKey overrides DefaultEnvelopeKey.
func WithEnvelopeKey(key string) Option {
	return func(o *Options) {
		if key != "" {
			o.EnvelopeKey = key
		}
	}
}

// WithHTTPClient injects the client used for remote contracts.
func WithHTTPClient(client *http.Client) Option {
	return func(o *Options) {
		o.HTTPClient = client
	}
}

// WithRequestTimeout caps remote fetch durations.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.RequestTimeout = timeout
	}
}

func newOptions(opts []Option) Options {
	o := Options{
		Path:           DefaultPath,
		EnvelopeKey:    DefaultEnvelopeKey,
		RequestTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Contract is a parsed and validated classifier description.
type Contract struct {
	doc      *openapi3.T
	location string
	options  Options
}

// Load parses and validates an OpenAPI document held in memory. location is
// used in error messages only.
func Load(ctx context.Context, location string, data []byte, opts ...Option) (*Contract, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("openapi: %s: document is empty", location)
	}
	options := newOptions(opts)

	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: %s: load document: %w", location, err)
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("openapi: %s: validate: %w", location, err)
	}
	if doc.Paths == nil || doc.Paths.Len() == 0 {
		return nil, fmt.Errorf("openapi: %s: document does not contain any paths", location)
	}

	return &Contract{doc: doc, location: location, options: options}, nil
}

// LoadDefault parses the embedded classifier contract.
func LoadDefault(ctx context.Context, opts ...Option) (*Contract, error) {
	return Load(ctx, "embedded:classifier.yaml", classifierContract, opts...)
}

// LoadFile reads a contract from disk.
func LoadFile(ctx context.Context, path string, opts ...Option) (*Contract, error) {
	path = filepath.Clean(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("openapi: read %s: %w", path, err)
	}
	return Load(ctx, path, data, opts...)
}

// LoadFS reads a contract from fsys.
func LoadFS(ctx context.Context, fsys fs.FS, name string, opts ...Option) (*Contract, error) {
	if fsys == nil {
		return nil, errors.New("openapi: filesystem is not configured")
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("openapi: read %s: %w", name, err)
	}
	return Load(ctx, name, data, opts...)
}

// LoadURL fetches a contract over HTTP, typically from the classifier itself.
func LoadURL(ctx context.Context, rawURL string, opts ...Option) (*Contract, error) {
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return nil, fmt.Errorf("openapi: invalid contract url %q: %w", rawURL, err)
	}
	options := newOptions(opts)
	client := options.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: options.RequestTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("openapi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/yaml, application/json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openapi: fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("openapi: fetch %s: unexpected status %s", rawURL, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("openapi: read %s: %w", rawURL, err)
	}
	return Load(ctx, rawURL, data, opts...)
}

// Location describes where the contract was read from.
func (c *Contract) Location() string {
	return c.location
}

// Title returns info.title.
func (c *Contract) Title() string {
	if c.doc.Info == nil {
		return ""
	}
	return c.doc.Info.Title
}

// Endpoint joins the first server URL with the predict path. It returns ""
// when the contract declares no servers.
func (c *Contract) Endpoint() string {
	if len(c.doc.Servers) == 0 || c.doc.Servers[0] == nil {
		return ""
	}
	base := strings.TrimRight(c.doc.Servers[0].URL, "/")
	if base == "" {
		return ""
	}
	return base + c.options.Path
}

// Scores lists the classes the 200 response may carry in ScoreProperty, or
// nil when the contract does not enumerate them.
func (c *Contract) Scores() []string {
	op, err := c.operation()
	if err != nil || op.Responses == nil {
		return nil
	}
	resp := op.Responses.Status(http.StatusOK)
	if resp == nil || resp.Value == nil {
		return nil
	}
	media := resp.Value.Content.Get(jsonMediaType)
	if media == nil || media.Schema == nil || media.Schema.Value == nil {
		return nil
	}
	prop := media.Schema.Value.Properties[ScoreProperty]
	if prop == nil || prop.Value == nil {
		return nil
	}
	return stringEnum(prop.Value.Enum)
}

func (c *Contract) operation() (*openapi3.Operation, error) {
	item := c.doc.Paths.Value(c.options.Path)
	if item == nil {
		return nil, fmt.Errorf("openapi: %s: path %s not found", c.location, c.options.Path)
	}
	if item.Post == nil {
		return nil, fmt.Errorf("openapi: %s: path %s has no POST operation", c.location, c.options.Path)
	}
	return item.Post, nil
}

func stringEnum(values []any) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
