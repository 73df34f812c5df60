package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/goliatone/go-creditform/internal/classifierstub"
	"github.com/goliatone/go-creditform/pkg/logging"
	"github.com/goliatone/go-creditform/pkg/schema"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded")
	}

	defaultAddr := os.Getenv("CLASSIFIER_ADDR")
	if defaultAddr == "" {
		defaultAddr = "127.0.0.1:5000"
	}
	addr := flag.String("addr", defaultAddr, "listen address")
	logLevel := flag.String("log-level", "info", "log level")
	logFormat := flag.String("log-format", logging.FormatJSON, "log format (json or console)")
	schemaPath := flag.String("schema", "", "schema file to validate requests against (default: built-in)")
	flag.Parse()

	logger, err := logging.New(logging.Config{Level: *logLevel, Format: *logFormat})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []classifierstub.Option{
		classifierstub.WithLogger(logger),
		classifierstub.WithRegistry(reg),
	}
	if *schemaPath != "" {
		sc, err := schema.LoadFile(*schemaPath)
		if err != nil {
			log.Fatalf("Failed to load schema: %v", err)
		}
		opts = append(opts, classifierstub.WithSchema(sc))
	}

	stub, err := classifierstub.New(opts...)
	if err != nil {
		log.Fatalf("Failed to build classifier stub: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := stub.Run(ctx, *addr); err != nil {
		log.Fatalf("Classifier stub failed: %v", err)
	}
}
