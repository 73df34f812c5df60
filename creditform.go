package creditform

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/goliatone/go-creditform/pkg/config"
	"github.com/goliatone/go-creditform/pkg/form"
	"github.com/goliatone/go-creditform/pkg/metrics"
	"github.com/goliatone/go-creditform/pkg/notify"
	"github.com/goliatone/go-creditform/pkg/openapi"
	"github.com/goliatone/go-creditform/pkg/schema"
	"github.com/goliatone/go-creditform/pkg/submission"
	"github.com/goliatone/go-creditform/pkg/validation"
)

// App bundles a ready to use form session with the pieces it was built from.
type App struct {
	Config   config.Config
	Schema   schema.Schema
	Pipeline *submission.Pipeline
	Session  *form.Session
	Terminal *notify.Terminal
	Logger   *zap.Logger
}

// Option customises Build.
type Option func(*buildOptions)

type buildOptions struct {
	logger     *zap.Logger
	output     io.Writer
	httpClient *http.Client
	registerer prometheus.Registerer
	values     map[string]string
	notifiers  []notify.Notifier
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *zap.Logger) Option {
	return func(o *buildOptions) {
		o.logger = logger
	}
}

// WithOutput sets where terminal notifications are written. Defaults to
// stdout.
func WithOutput(w io.Writer) Option {
	return func(o *buildOptions) {
		o.output = w
	}
}

// WithHTTPClient sets the client used for classifier requests and remote
// contracts.
func WithHTTPClient(client *http.Client) Option {
	return func(o *buildOptions) {
		o.httpClient = client
	}
}

// WithRegisterer enables Prometheus metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *buildOptions) {
		o.registerer = reg
	}
}

// WithValues pre-fills the session.
func WithValues(values map[string]string) Option {
	return func(o *buildOptions) {
		o.values = values
	}
}

// WithNotifier adds a notifier next to the terminal and log notifiers.
func WithNotifier(n notify.Notifier) Option {
	return func(o *buildOptions) {
		if n != nil {
			o.notifiers = append(o.notifiers, n)
		}
	}
}

// Build wires schema, validation, submission, notification and metrics from
// cfg into a Session.
func Build(ctx context.Context, cfg config.Config, options ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := buildOptions{logger: zap.NewNop(), output: os.Stdout}
	for _, opt := range options {
		if opt != nil {
			opt(&opts)
		}
	}
	if opts.logger == nil {
		opts.logger = zap.NewNop()
	}

	s, contractEndpoint, err := loadSources(ctx, cfg, opts.httpClient)
	if err != nil {
		return nil, err
	}
	cfg.Endpoint = firstNonEmpty(cfg.Endpoint, contractEndpoint, submission.DefaultEndpoint)

	var recorder metrics.Recorder = metrics.Noop{}
	if opts.registerer != nil {
		prom, err := metrics.NewPrometheus(opts.registerer)
		if err != nil {
			return nil, fmt.Errorf("creditform: metrics: %w", err)
		}
		recorder = prom
	}

	messages, err := notify.NewMessages(cfg.Messages)
	if err != nil {
		return nil, err
	}
	terminal := notify.NewTerminal(opts.output, notify.PaletteFromManifest(notify.DefaultManifest(), cfg.Theme.Variant))
	notifiers := append([]notify.Notifier{terminal, notify.NewLogNotifier(opts.logger)}, opts.notifiers...)

	pipelineOpts := []submission.Option{
		submission.WithTimeout(cfg.Timeout),
		submission.WithNotifier(notify.Multi(notifiers...)),
		submission.WithMessages(messages),
		submission.WithLogger(opts.logger),
		submission.WithMetrics(recorder),
	}
	if opts.httpClient != nil {
		pipelineOpts = append(pipelineOpts, submission.WithHTTPClient(opts.httpClient))
	}
	pipeline, err := submission.New(cfg.Endpoint, pipelineOpts...)
	if err != nil {
		return nil, err
	}

	session := form.New(validation.New(s), pipeline,
		form.WithLogger(opts.logger),
		form.WithMetrics(recorder),
		form.WithValues(opts.values),
	)

	return &App{
		Config:   cfg,
		Schema:   s,
		Pipeline: pipeline,
		Session:  session,
		Terminal: terminal,
		Logger:   opts.logger,
	}, nil
}

// LoadSchema resolves the form schema: an OpenAPI contract when configured,
// else a schema file, else the built-in credit score schema.
func LoadSchema(ctx context.Context, cfg config.Config, client *http.Client) (schema.Schema, error) {
	s, _, err := loadSources(ctx, cfg, client)
	return s, err
}

// loadSources also returns the contract's predict URL, empty when no
// contract is configured or it declares no servers.
func loadSources(ctx context.Context, cfg config.Config, client *http.Client) (schema.Schema, string, error) {
	switch {
	case cfg.Contract != "":
		var (
			contract *openapi.Contract
			err      error
		)
		if cfg.ContractIsURL() {
			contract, err = openapi.LoadURL(ctx, cfg.Contract, openapi.WithHTTPClient(client), openapi.WithRequestTimeout(cfg.Timeout))
		} else {
			contract, err = openapi.LoadFile(ctx, cfg.Contract)
		}
		if err != nil {
			return schema.Schema{}, "", err
		}
		s, err := contract.Schema("")
		if err != nil {
			return schema.Schema{}, "", err
		}
		return s, contract.Endpoint(), nil
	case cfg.Schema != "":
		s, err := schema.LoadFile(cfg.Schema)
		return s, "", err
	default:
		return schema.CreditScore(), "", nil
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
