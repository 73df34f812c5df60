package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-creditform/pkg/logging"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestLoadLayering(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "creditform.yaml", `
endpoint: http://classifier.internal:5000/predict
timeout: 3s
log:
  level: debug
  format: console
theme:
  variant: dark
messages:
  success_title: "Score ready"
`)
	dotenv := writeFile(t, dir, ".env", "CREDITFORM_TIMEOUT=4s\nCREDITFORM_CONTRACT=http://classifier.internal:5000/openapi.yaml\n")
	t.Setenv(EnvTimeout, "5s")
	t.Setenv(EnvMetricsAddr, ":9100")

	cfg, err := Load(file, dotenv)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Endpoint != "http://classifier.internal:5000/predict" {
		t.Fatalf("file value not applied: %q", cfg.Endpoint)
	}
	if cfg.Timeout != 5*time.Second {
		t.Fatalf("environment must win over dotenv, got %s", cfg.Timeout)
	}
	if !cfg.ContractIsURL() {
		t.Fatalf("dotenv contract not applied: %q", cfg.Contract)
	}
	if cfg.MetricsAddr != ":9100" || cfg.Theme.Variant != "dark" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != logging.FormatConsole {
		t.Fatalf("unexpected log config: %+v", cfg.Log)
	}
	if cfg.Messages.SuccessTitle != "Score ready" {
		t.Fatalf("messages not loaded: %+v", cfg.Messages)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "absent.yaml")); err == nil {
		t.Fatalf("expected missing file error")
	}
	bad := writeFile(t, dir, "bad.yaml", "timeout: [")
	if _, err := Load(bad); err == nil {
		t.Fatalf("expected parse error")
	}
	t.Setenv(EnvTimeout, "soon")
	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), EnvTimeout) {
		t.Fatalf("expected timeout env error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Endpoint = "ftp://example.com/predict"
	cfg.Timeout = 0
	cfg.Log.Level = "chatty"

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	for _, want := range []string{"must be an http(s) URL", "timeout must be positive", "invalid level"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}

	cfg = Default()
	cfg.Endpoint = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("an empty endpoint is resolved at build time: %v", err)
	}
}
