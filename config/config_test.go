package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "depsafe.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validYAML = `
service:
  name: "orders-api"
  version: "1.4.2"
  environment: "prod"

resilience:
  failure_threshold: 3
  open_duration: "10s"
  call_timeout: "2s"
  max_attempts: 4
  base_delay: "50ms"
  max_delay: "1s"

telemetry:
  logging:
    enabled: true
    level: "debug"
  tracing:
    enabled: false
    exporter: "none"
  metrics:
    enabled: false
    exporter: "none"
`

func TestLoad_ValidFile(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Service.Name != "orders-api" {
		t.Errorf("Service.Name = %q, want orders-api", cfg.Service.Name)
	}
	if cfg.Service.Environment != EnvProd {
		t.Errorf("Service.Environment = %q, want prod", cfg.Service.Environment)
	}
	if cfg.Resilience.FailureThreshold != 3 {
		t.Errorf("FailureThreshold = %d, want 3", cfg.Resilience.FailureThreshold)
	}
	if cfg.Telemetry.Logging.Level != LogLevelDebug {
		t.Errorf("Logging.Level = %q, want debug", cfg.Telemetry.Logging.Level)
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, "service:\n  name: svc\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Service.Environment != EnvDev {
		t.Errorf("Environment = %q, want dev default", cfg.Service.Environment)
	}
	if cfg.Resilience.FailureThreshold != 5 {
		t.Errorf("FailureThreshold = %d, want 5 default", cfg.Resilience.FailureThreshold)
	}
	if cfg.Resilience.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3 default", cfg.Resilience.MaxAttempts)
	}
	if cfg.Resilience.OpenDuration != "30s" {
		t.Errorf("OpenDuration = %q, want 30s default", cfg.Resilience.OpenDuration)
	}
}

func TestLoad_MissingFileError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for explicit path that does not exist")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("DEPLOY_VERSION", "2.0.0-rc1")

	yaml := `
service:
  name: svc
  version: "${DEPLOY_VERSION}"
`
	cfg, err := Load(writeConfigFile(t, yaml))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Service.Version != "2.0.0-rc1" {
		t.Errorf("Version = %q, want expanded value", cfg.Service.Version)
	}
}

func TestLoad_EnvExpansionMissingVar(t *testing.T) {
	yaml := `
service:
  name: svc
  version: "${DEPSAFE_TEST_UNSET_VAR}"
`
	_, err := Load(writeConfigFile(t, yaml))
	if err == nil {
		t.Fatal("expected error for unset ${VAR} reference")
	}
	if !strings.Contains(err.Error(), "DEPSAFE_TEST_UNSET_VAR") {
		t.Errorf("error %q does not name the missing variable", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	base := func() *Config {
		cfg := &Config{
			Service: ServiceConfig{Name: "svc", Environment: EnvDev},
			Resilience: ResilienceConfig{
				FailureThreshold: 5,
				OpenDuration:     "30s",
				CallTimeout:      "30s",
				MaxAttempts:      3,
				BaseDelay:        "100ms",
			},
		}
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing service name", func(c *Config) { c.Service.Name = "" }},
		{"bad environment", func(c *Config) { c.Service.Environment = "production" }},
		{"zero threshold", func(c *Config) { c.Resilience.FailureThreshold = 0 }},
		{"zero attempts", func(c *Config) { c.Resilience.MaxAttempts = 0 }},
		{"bad duration", func(c *Config) { c.Resilience.OpenDuration = "thirty seconds" }},
		{"bad log level", func(c *Config) { c.Telemetry.Logging.Level = "verbose" }},
		{"bad tracing exporter", func(c *Config) { c.Telemetry.Tracing.Exporter = "zipkin" }},
		{"sample pct above one", func(c *Config) { c.Telemetry.Tracing.SamplePct = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	if err := base().Validate(); err != nil {
		t.Errorf("base config should validate, got: %v", err)
	}
}

func TestResilienceDefaults(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	d := cfg.ResilienceDefaults()
	if d.FailureThreshold != 3 {
		t.Errorf("FailureThreshold = %d, want 3", d.FailureThreshold)
	}
	if d.OpenDuration != 10*time.Second {
		t.Errorf("OpenDuration = %s, want 10s", d.OpenDuration)
	}
	if d.CallTimeout != 2*time.Second {
		t.Errorf("CallTimeout = %s, want 2s", d.CallTimeout)
	}
	if d.MaxAttempts != 4 {
		t.Errorf("MaxAttempts = %d, want 4", d.MaxAttempts)
	}
	if d.BaseDelay != 50*time.Millisecond {
		t.Errorf("BaseDelay = %s, want 50ms", d.BaseDelay)
	}
	if d.MaxDelay != time.Second {
		t.Errorf("MaxDelay = %s, want 1s", d.MaxDelay)
	}
}

func TestObserveConfig(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	oc := cfg.ObserveConfig()
	if oc.ServiceName != "orders-api" {
		t.Errorf("ServiceName = %q, want orders-api", oc.ServiceName)
	}
	if oc.Version != "1.4.2" {
		t.Errorf("Version = %q, want 1.4.2", oc.Version)
	}
	if !oc.Logging.Enabled || oc.Logging.Level != "debug" {
		t.Errorf("Logging = %+v, want enabled at debug", oc.Logging)
	}
	if err := oc.Validate(); err != nil {
		t.Errorf("converted observe config should validate: %v", err)
	}
}
