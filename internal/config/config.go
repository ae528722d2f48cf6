// Package config loads satroute settings from defaults, an optional config
// file and SATROUTE_ environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/signalsfoundry/constellation-router/internal/logging"
	"github.com/signalsfoundry/constellation-router/internal/observability"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "SATROUTE"

// ErrInvalidConfig reports a setting outside its allowed range.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the resolved CLI configuration.
type Config struct {
	Log         logging.Config
	MetricsAddr string
	Tracing     observability.TracingConfig

	IncludeEndpoints bool
	Parallelism      int
	BroadPhase       bool
}

func defaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.service_name", "satroute")
	v.SetDefault("tracing.sample_ratio", 1.0)
	v.SetDefault("router.include_endpoints", false)
	v.SetDefault("router.parallelism", runtime.GOMAXPROCS(0))
	v.SetDefault("graph.broad_phase", true)
}

// Load resolves the configuration. path may be empty, in which case
// SATROUTE_CONFIG is consulted; with neither set only defaults and
// environment overrides apply.
func Load(path string) (Config, error) {
	v := viper.New()
	defaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := Config{
		Log: logging.Config{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		MetricsAddr: v.GetString("metrics.addr"),
		Tracing: observability.TracingConfig{
			Enabled:     v.GetBool("tracing.enabled"),
			ServiceName: v.GetString("tracing.service_name"),
			Exporter:    strings.ToLower(v.GetString("tracing.exporter")),
			Endpoint:    v.GetString("tracing.endpoint"),
			SampleRatio: v.GetFloat64("tracing.sample_ratio"),
		},
		IncludeEndpoints: v.GetBool("router.include_endpoints"),
		Parallelism:      v.GetInt("router.parallelism"),
		BroadPhase:       v.GetBool("graph.broad_phase"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges that viper cannot express.
func (c Config) Validate() error {
	if c.Parallelism < 1 {
		return fmt.Errorf("%w: router.parallelism must be >= 1, got %d", ErrInvalidConfig, c.Parallelism)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("%w: tracing.sample_ratio must be in [0,1], got %g", ErrInvalidConfig, c.Tracing.SampleRatio)
	}
	switch c.Tracing.Exporter {
	case "stdout", "otlp", "otlpgrpc":
	default:
		return fmt.Errorf("%w: tracing.exporter %q", ErrInvalidConfig, c.Tracing.Exporter)
	}
	return nil
}
