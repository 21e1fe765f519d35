package loader_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tailored-agentic-units/loadstate/loader"
	"github.com/tailored-agentic-units/loadstate/workflow"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := loader.DefaultConfig()

	if cfg.Workflow.AggregateKey != workflow.DefaultAggregateKey {
		t.Errorf("Workflow.AggregateKey = %q, want %q", cfg.Workflow.AggregateKey, workflow.DefaultAggregateKey)
	}
	if cfg.HTTP.ExpectedStatus != 200 {
		t.Errorf("HTTP.ExpectedStatus = %d, want 200", cfg.HTTP.ExpectedStatus)
	}
	if cfg.Metrics.Enabled || cfg.Tracing.Enabled {
		t.Error("metrics and tracing should be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := loader.DefaultConfig()
	cfg.Merge(&loader.Config{
		Workflow: workflow.Config{Observer: "noop"},
		Metrics:  loader.MetricsConfig{Enabled: true},
		HTTP:     loader.HTTPConfig{ExpectedStatus: 204},
	})

	if cfg.Workflow.Observer != "noop" {
		t.Errorf("Workflow.Observer = %q, want noop", cfg.Workflow.Observer)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = false, want true")
	}
	if cfg.Metrics.Namespace != "loadstate" {
		t.Errorf("Metrics.Namespace = %q, want loadstate (unchanged)", cfg.Metrics.Namespace)
	}
	if cfg.HTTP.ExpectedStatus != 204 {
		t.Errorf("HTTP.ExpectedStatus = %d, want 204", cfg.HTTP.ExpectedStatus)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("HTTP.Addr = %q, want :8080 (unchanged)", cfg.HTTP.Addr)
	}
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "json",
			file: "config.json",
			content: `{
				"workflow": {"observer": "noop", "aggregate_key": "everything", "clear_failed_on_start": false},
				"metrics": {"enabled": true},
				"http": {"expected_status": 201, "timeout": 5000000000}
			}`,
		},
		{
			name: "yaml",
			file: "config.yaml",
			content: `
workflow:
  observer: noop
  aggregate_key: everything
  clear_failed_on_start: false
metrics:
  enabled: true
http:
  expected_status: 201
  timeout: 5s
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := loader.LoadConfig(writeConfig(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("LoadConfig() error = %v", err)
			}

			if cfg.Workflow.Observer != "noop" || cfg.Workflow.AggregateKey != "everything" {
				t.Errorf("Workflow = %+v", cfg.Workflow)
			}
			if cfg.Workflow.ClearFailedOnStart() {
				t.Error("ClearFailedOnStart() = true, want false")
			}
			if !cfg.Metrics.Enabled {
				t.Error("Metrics.Enabled = false, want true")
			}
			if cfg.HTTP.ExpectedStatus != 201 {
				t.Errorf("HTTP.ExpectedStatus = %d, want 201", cfg.HTTP.ExpectedStatus)
			}
			if cfg.HTTP.Timeout != 5*time.Second {
				t.Errorf("HTTP.Timeout = %v, want 5s", cfg.HTTP.Timeout)
			}
			if cfg.HTTP.Addr != ":8080" {
				t.Errorf("HTTP.Addr = %q, want default", cfg.HTTP.Addr)
			}
		})
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.json") },
		},
		{
			name: "malformed json",
			path: func(t *testing.T) string { return writeConfig(t, "bad.json", `{"workflow":`) },
		},
		{
			name: "invalid status",
			path: func(t *testing.T) string { return writeConfig(t, "bad.yml", "http:\n  expected_status: 42\n") },
		},
		{
			name: "invalid aggregate key",
			path: func(t *testing.T) string { return writeConfig(t, "bad.json", `{"workflow":{"aggregate_key":"a/b"}}`) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loader.LoadConfig(tt.path(t)); err == nil {
				t.Error("LoadConfig() error = nil, want error")
			}
		})
	}
}
