package config

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"

	"github.com/fallowlabs/depsafe/observe"
	"github.com/fallowlabs/depsafe/resilience"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ResilienceConfig struct {
	FailureThreshold int    `mapstructure:"failure_threshold"`
	OpenDuration     string `mapstructure:"open_duration"`
	CallTimeout      string `mapstructure:"call_timeout"`
	MaxAttempts      int    `mapstructure:"max_attempts"`
	BaseDelay        string `mapstructure:"base_delay"`
	MaxDelay         string `mapstructure:"max_delay"`
}

type TracingConfig struct {
	Enabled   bool    `mapstructure:"enabled"`
	Exporter  string  `mapstructure:"exporter"`
	SamplePct float64 `mapstructure:"sample_pct"`
}

type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Exporter string `mapstructure:"exporter"`
}

type LoggingConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Level   string `mapstructure:"level"`
}

type TelemetryConfig struct {
	Tracing TracingConfig `mapstructure:"tracing"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type Config struct {
	Service    ServiceConfig    `mapstructure:"service"`
	Resilience ResilienceConfig `mapstructure:"resilience"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// Load reads configuration from the given file (YAML), falling back to
// built-in defaults and DEPSAFE_* environment variables when path is empty
// or the file does not exist. String values may reference environment
// variables with ${VAR}; a referenced variable that is missing from the
// environment is an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("service.environment", EnvDev)
	v.SetDefault("resilience.failure_threshold", 5)
	v.SetDefault("resilience.open_duration", "30s")
	v.SetDefault("resilience.call_timeout", "30s")
	v.SetDefault("resilience.max_attempts", 3)
	v.SetDefault("resilience.base_delay", "100ms")
	v.SetDefault("resilience.max_delay", "0s")
	v.SetDefault("telemetry.logging.enabled", true)
	v.SetDefault("telemetry.logging.level", LogLevelInfo)
	v.SetDefault("telemetry.tracing.exporter", "none")
	v.SetDefault("telemetry.tracing.sample_pct", 1.0)
	v.SetDefault("telemetry.metrics.exporter", "none")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("depsafe")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("DEPSAFE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.expand(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expand applies strict environment expansion to the string fields that
// commonly carry deployment-specific values.
func (c *Config) expand() error {
	for _, field := range []*string{
		&c.Service.Name,
		&c.Service.Version,
		&c.Service.Environment,
		&c.Telemetry.Tracing.Exporter,
		&c.Telemetry.Metrics.Exporter,
	} {
		expanded, err := ExpandEnvStrict(*field)
		if err != nil {
			return err
		}
		*field = expanded
	}
	return nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Service,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ServiceConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ServiceConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Name, validation.Required),
					validation.Field(&sc.Environment,
						validation.Required,
						validation.In(EnvDev, EnvStaging, EnvProd),
					),
				)
			}),
		),
		validation.Field(&c.Resilience,
			validation.Required,
			validation.By(func(value interface{}) error {
				rc, ok := value.(ResilienceConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ResilienceConfig")
				}
				return validation.ValidateStruct(&rc,
					validation.Field(&rc.FailureThreshold, validation.Required, validation.Min(1)),
					validation.Field(&rc.MaxAttempts, validation.Required, validation.Min(1)),
					validation.Field(&rc.OpenDuration, validation.Required, validation.By(validateDuration)),
					validation.Field(&rc.CallTimeout, validation.Required, validation.By(validateDuration)),
					validation.Field(&rc.BaseDelay, validation.Required, validation.By(validateDuration)),
					validation.Field(&rc.MaxDelay, validation.By(validateDuration)),
				)
			}),
		),
		validation.Field(&c.Telemetry,
			validation.By(func(value interface{}) error {
				tc, ok := value.(TelemetryConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a TelemetryConfig")
				}
				return validation.ValidateStruct(&tc,
					validation.Field(&tc.Logging,
						validation.By(func(value interface{}) error {
							lc, ok := value.(LoggingConfig)
							if !ok {
								return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
							}
							return validation.ValidateStruct(&lc,
								validation.Field(&lc.Level,
									validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
								),
							)
						}),
					),
					validation.Field(&tc.Tracing,
						validation.By(func(value interface{}) error {
							trc, ok := value.(TracingConfig)
							if !ok {
								return validation.NewError("validation_invalid_type", "must be a TracingConfig")
							}
							return validation.ValidateStruct(&trc,
								validation.Field(&trc.Exporter,
									validation.In("otlp", "jaeger", "stdout", "none", ""),
								),
								validation.Field(&trc.SamplePct,
									validation.Min(0.0), validation.Max(1.0),
								),
							)
						}),
					),
					validation.Field(&tc.Metrics,
						validation.By(func(value interface{}) error {
							mc, ok := value.(MetricsConfig)
							if !ok {
								return validation.NewError("validation_invalid_type", "must be a MetricsConfig")
							}
							return validation.ValidateStruct(&mc,
								validation.Field(&mc.Exporter,
									validation.In("otlp", "prometheus", "stdout", "none", ""),
								),
							)
						}),
					),
				)
			}),
		),
	)
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}
	if durationStr == "" {
		return nil
	}
	if _, err := time.ParseDuration(durationStr); err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 2s, 5m, 1h)")
	}
	return nil
}

// ResilienceDefaults converts the validated config into coordinator defaults.
func (c *Config) ResilienceDefaults() resilience.Defaults {
	return resilience.Defaults{
		FailureThreshold: c.Resilience.FailureThreshold,
		OpenDuration:     mustDuration(c.Resilience.OpenDuration),
		CallTimeout:      mustDuration(c.Resilience.CallTimeout),
		MaxAttempts:      c.Resilience.MaxAttempts,
		BaseDelay:        mustDuration(c.Resilience.BaseDelay),
		MaxDelay:         mustDuration(c.Resilience.MaxDelay),
	}
}

// ObserveConfig converts the validated config into an observability config.
func (c *Config) ObserveConfig() observe.Config {
	return observe.Config{
		ServiceName: c.Service.Name,
		Version:     c.Service.Version,
		Tracing: observe.TracingConfig{
			Enabled:   c.Telemetry.Tracing.Enabled,
			Exporter:  c.Telemetry.Tracing.Exporter,
			SamplePct: c.Telemetry.Tracing.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.Telemetry.Metrics.Enabled,
			Exporter: c.Telemetry.Metrics.Exporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: c.Telemetry.Logging.Enabled,
			Level:   c.Telemetry.Logging.Level,
		},
	}
}

// mustDuration assumes Validate has already accepted the value.
func mustDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, _ := time.ParseDuration(s)
	return d
}
