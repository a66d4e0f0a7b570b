// Package config loads application configuration from flags, environment
// variables and optional YAML files via viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v          *viper.Viper
	configFile string
	envPrefix  string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v:         viper.New(),
		envPrefix: "DECINTEL",
	}
}

// NewLoaderWithViper creates a loader using an existing viper instance.
// This allows integration with CLI flag bindings.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{
		v:         v,
		envPrefix: "DECINTEL",
	}
}

// WithConfigFile sets an explicit config file path.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// Viper returns the underlying viper instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load loads configuration from all sources.
// Precedence (highest to lowest):
// 1. CLI flags (set via viper.BindPFlag)
// 2. Environment variables (DECINTEL_*)
// 3. Project config (.decintel.yaml in current directory)
// 4. User config (~/.config/decintel/config.yaml)
// 5. Defaults
func (l *Loader) Load() (*Config, error) {
	l.setDefaults()

	l.v.SetEnvPrefix(l.envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	} else {
		l.v.SetConfigName(".decintel")
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			l.v.AddConfigPath(filepath.Join(home, ".config", "decintel"))
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if l.configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// No config file is fine; defaults and env apply.
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (l *Loader) setDefaults() {
	l.v.SetDefault("log.level", "info")
	l.v.SetDefault("log.format", "auto")

	l.v.SetDefault("server.host", "localhost")
	l.v.SetDefault("server.port", 8080)
	l.v.SetDefault("server.no_cors", false)
	l.v.SetDefault("server.event_buffer", 100)

	l.v.SetDefault("store.path", filepath.Join(".decintel", "decintel.db"))
	l.v.SetDefault("store.charts_dir", "charts")
	l.v.SetDefault("store.reports_dir", "reports")
	l.v.SetDefault("store.seed", true)

	l.v.SetDefault("pipeline.segments", 4)
	l.v.SetDefault("pipeline.high_risk_threshold", 0.7)
	l.v.SetDefault("pipeline.top_explanations", 3)
	l.v.SetDefault("pipeline.persist_simulations", false)
}

func validate(cfg *Config) error {
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "auto", "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s", cfg.Log.Format)
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	if cfg.Pipeline.Segments < 1 {
		return fmt.Errorf("pipeline.segments must be at least 1")
	}
	if cfg.Pipeline.HighRiskThreshold < 0 || cfg.Pipeline.HighRiskThreshold > 1 {
		return fmt.Errorf("pipeline.high_risk_threshold must be in [0,1]")
	}
	if cfg.Pipeline.TopExplanations < 0 {
		return fmt.Errorf("pipeline.top_explanations cannot be negative")
	}
	return nil
}
