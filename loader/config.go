package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/tailored-agentic-units/loadstate/workflow"
)

const (
	defaultNamespace      = "loadstate"
	defaultAddr           = ":8080"
	defaultExpectedStatus = 200
	defaultTimeout        = 10 * time.Second
)

// MetricsConfig enables the Prometheus observer.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty" validate:"omitempty,excludesall=-./"`
}

// TracingConfig enables the OpenTelemetry span observer.
type TracingConfig struct {
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

// HTTPConfig holds settings for HTTP-backed checks and the state API.
// Timeout is nanoseconds in JSON and a duration string ("5s") in YAML.
type HTTPConfig struct {
	Addr           string        `json:"addr,omitempty" yaml:"addr,omitempty" validate:"omitempty,hostname_port"`
	ExpectedStatus int           `json:"expected_status,omitempty" yaml:"expected_status,omitempty" validate:"omitempty,min=100,max=599"`
	Timeout        time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" validate:"gte=0"`
}

// Config holds initialization parameters for a Loader.
type Config struct {
	Workflow workflow.Config `json:"workflow" yaml:"workflow"`
	Metrics  MetricsConfig   `json:"metrics" yaml:"metrics"`
	Tracing  TracingConfig   `json:"tracing" yaml:"tracing"`
	HTTP     HTTPConfig      `json:"http" yaml:"http"`
}

// DefaultConfig returns a Config with every subsystem at its defaults.
// Metrics and tracing are off.
func DefaultConfig() Config {
	return Config{
		Workflow: workflow.DefaultConfig(),
		Metrics:  MetricsConfig{Namespace: defaultNamespace},
		HTTP: HTTPConfig{
			Addr:           defaultAddr,
			ExpectedStatus: defaultExpectedStatus,
			Timeout:        defaultTimeout,
		},
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	c.Workflow.Merge(&source.Workflow)

	if source.Metrics.Enabled {
		c.Metrics.Enabled = true
	}
	if source.Metrics.Namespace != "" {
		c.Metrics.Namespace = source.Metrics.Namespace
	}

	if source.Tracing.Enabled {
		c.Tracing.Enabled = true
	}

	if source.HTTP.Addr != "" {
		c.HTTP.Addr = source.HTTP.Addr
	}
	if source.HTTP.ExpectedStatus > 0 {
		c.HTTP.ExpectedStatus = source.HTTP.ExpectedStatus
	}
	if source.HTTP.Timeout > 0 {
		c.HTTP.Timeout = source.HTTP.Timeout
	}
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadConfig reads a JSON or YAML (by .yaml/.yml extension) config file,
// merges it over the defaults, and validates the result.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &loaded)
	default:
		err = json.Unmarshal(data, &loaded)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
