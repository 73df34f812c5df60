package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-creditform/pkg/logging"
	"github.com/goliatone/go-creditform/pkg/notify"
	"github.com/goliatone/go-creditform/pkg/submission"
)

// Environment variable names.
const (
	EnvEndpoint     = "CREDITFORM_ENDPOINT"
	EnvTimeout      = "CREDITFORM_TIMEOUT"
	EnvLogLevel     = "CREDITFORM_LOG_LEVEL"
	EnvLogFormat    = "CREDITFORM_LOG_FORMAT"
	EnvSchema       = "CREDITFORM_SCHEMA"
	EnvContract     = "CREDITFORM_CONTRACT"
	EnvThemeVariant = "CREDITFORM_THEME_VARIANT"
	EnvMetricsAddr  = "CREDITFORM_METRICS_ADDR"
)

// Config holds everything the CLI needs to build a session.
type Config struct {
	// Endpoint is the classifier predict URL. Empty falls back to the
	// contract's server, then submission.DefaultEndpoint.
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
	// Schema is a YAML or JSON schema file. Empty uses the built-in schema.
	Schema string `yaml:"schema"`
	// Contract is an OpenAPI file path or URL. It takes precedence over Schema.
	Contract    string           `yaml:"contract"`
	Log         logging.Config   `yaml:"log"`
	Theme       Theme            `yaml:"theme"`
	MetricsAddr string           `yaml:"metrics_addr"`
	Messages    notify.Templates `yaml:"messages"`
}

// Theme selects the go-theme variant used for terminal prefixes.
type Theme struct {
	Variant string `yaml:"variant"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Timeout: submission.DefaultTimeout,
		Log:     logging.Default(),
	}
}

// Load builds a Config from defaults, then the YAML file at path (optional),
// then dotenv files, then the process environment. Missing dotenv files are
// ignored; a missing config file is an error only when path is set.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	env, err := readDotenv(envFiles)
	if err != nil {
		return Config{}, err
	}
	for _, kv := range os.Environ() {
		if key, value, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(key, "CREDITFORM_") {
			env[key] = value
		}
	}
	if err := cfg.applyEnv(env); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readDotenv(files []string) (map[string]string, error) {
	out := make(map[string]string)
	for _, file := range files {
		values, err := godotenv.Read(file)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("config: read %s: %w", file, err)
		}
		for k, v := range values {
			out[k] = v
		}
	}
	return out, nil
}

func (c *Config) applyEnv(env map[string]string) error {
	set := func(key string, target *string) {
		if v, ok := env[key]; ok && strings.TrimSpace(v) != "" {
			*target = strings.TrimSpace(v)
		}
	}
	set(EnvEndpoint, &c.Endpoint)
	set(EnvLogLevel, &c.Log.Level)
	set(EnvLogFormat, &c.Log.Format)
	set(EnvSchema, &c.Schema)
	set(EnvContract, &c.Contract)
	set(EnvThemeVariant, &c.Theme.Variant)
	set(EnvMetricsAddr, &c.MetricsAddr)

	if raw, ok := env[EnvTimeout]; ok && strings.TrimSpace(raw) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvTimeout, err)
		}
		c.Timeout = d
	}
	return nil
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Endpoint) != "" {
		if u, err := url.Parse(c.Endpoint); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("config: endpoint %q must be an http(s) URL", c.Endpoint))
		}
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("config: timeout must be positive, got %s", c.Timeout))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ContractIsURL reports whether Contract should be fetched over HTTP.
func (c Config) ContractIsURL() bool {
	return strings.HasPrefix(c.Contract, "http://") || strings.HasPrefix(c.Contract, "https://")
}
