package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/goliatone/go-creditform"
	"github.com/goliatone/go-creditform/pkg/config"
	"github.com/goliatone/go-creditform/pkg/logging"
	"github.com/goliatone/go-creditform/pkg/submission"
	"github.com/goliatone/go-creditform/pkg/tui"
)

// values collects repeated -set name=value flags.
type values map[string]string

func (v values) String() string {
	parts := make([]string, 0, len(v))
	for k, val := range v {
		parts = append(parts, k+"="+val)
	}
	return strings.Join(parts, ",")
}

func (v values) Set(raw string) error {
	name, value, ok := strings.Cut(raw, "=")
	if !ok || strings.TrimSpace(name) == "" {
		return fmt.Errorf("expected name=value, got %q", raw)
	}
	v[strings.TrimSpace(name)] = value
	return nil
}

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup completes before
// main exits.
func run() int {
	configPath := flag.String("config", "", "YAML config file")
	envFile := flag.String("env", ".env", "dotenv file (ignored when missing)")
	endpoint := flag.String("endpoint", "", "classifier predict URL (default: contract server, then "+submission.DefaultEndpoint+")")
	timeout := flag.Duration("timeout", 0, "classifier request timeout")
	contract := flag.String("contract", "", "OpenAPI contract path or URL to derive fields from")
	schemaPath := flag.String("schema", "", "schema file (YAML or JSON)")
	logLevel := flag.String("log-level", "", "log level")
	logFormat := flag.String("log-format", "", "log format (json or console)")
	variant := flag.String("theme", "", "terminal theme variant (e.g. dark)")
	metricsAddr := flag.String("metrics-addr", "", "serve Prometheus metrics on this address")
	nonInteractive := flag.Bool("non-interactive", false, "submit -set values without prompting first and do not offer retries")
	inline := flag.Bool("inline-validation", false, "reject invalid text input at the prompt")
	pageSize := flag.Int("page-size", 0, "visible options in select prompts")
	prefill := values{}
	flag.Var(prefill, "set", "pre-fill a field as name=value (repeatable)")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return 1
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "endpoint":
			cfg.Endpoint = *endpoint
		case "timeout":
			cfg.Timeout = *timeout
		case "contract":
			cfg.Contract = *contract
		case "schema":
			cfg.Schema = *schemaPath
		case "log-level":
			cfg.Log.Level = *logLevel
		case "log-format":
			cfg.Log.Format = *logFormat
		case "theme":
			cfg.Theme.Variant = *variant
		case "metrics-addr":
			cfg.MetricsAddr = *metricsAddr
		}
	})

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Printf("Failed to build logger: %v", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	options := []creditform.Option{
		creditform.WithLogger(logger),
		creditform.WithValues(prefill),
	}
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		options = append(options, creditform.WithRegisterer(reg))
		serveMetrics(ctx, logger, cfg.MetricsAddr, reg)
	}

	app, err := creditform.Build(ctx, cfg, options...)
	if err != nil {
		logger.Error("failed to build form", zap.Error(err))
		return 1
	}
	defer app.Session.Discard()
	logger.Debug("form ready", zap.String("endpoint", app.Config.Endpoint), zap.Int("fields", len(app.Schema.Fields)))

	runnerOpts := []tui.Option{
		tui.WithPromptDriver(tui.NewSurveyDriver(app.Terminal)),
		tui.WithLogger(logger),
		tui.WithPageSize(*pageSize),
	}
	if *nonInteractive {
		runnerOpts = append(runnerOpts, tui.WithSkipPrefilled(), tui.WithoutRetryPrompt())
	}
	if *inline {
		runnerOpts = append(runnerOpts, tui.WithInlineValidation())
	}
	runner, err := tui.New(app.Session, runnerOpts...)
	if err != nil {
		logger.Error("failed to start prompts", zap.Error(err))
		return 1
	}

	if _, err := runner.Run(ctx); err != nil {
		if errors.Is(err, tui.ErrAborted) || errors.Is(err, context.Canceled) {
			return 130
		}
		// Submission failures were already reported by the notifier.
		logger.Debug("run finished with error", zap.Error(err))
		return 1
	}
	return 0
}

func serveMetrics(ctx context.Context, logger *zap.Logger, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
