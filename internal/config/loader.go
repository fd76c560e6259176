// Package config loads server and provider configuration with the
// precedence runtime overrides > environment > config file > defaults.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config is the loaded application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Provider ProviderConfig `mapstructure:"provider"`
	Client   ClientConfig   `mapstructure:"client"`
	Workers  int            `mapstructure:"workers"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Profile string `mapstructure:"profile"`
}

// ProviderConfig carries backend credentials and placement.
type ProviderConfig struct {
	Name            string `mapstructure:"name"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	SessionToken    string `mapstructure:"session_token"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	APIBaseURL      string `mapstructure:"api_base_url"`
	Project         string `mapstructure:"project"`
	FileRoot        string `mapstructure:"file_root"`
}

// ClientConfig tunes the REST provider client.
type ClientConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	PerPage   int           `mapstructure:"per_page"`
	RateLimit float64       `mapstructure:"rate_limit"`
}

// envBindings maps flat environment variables onto config keys.
var envBindings = map[string]string{
	"server.host":                "GODRIVES_HOST",
	"server.port":                "GODRIVES_PORT",
	"server.read_timeout":        "GODRIVES_READ_TIMEOUT",
	"server.write_timeout":       "GODRIVES_WRITE_TIMEOUT",
	"server.idle_timeout":        "GODRIVES_IDLE_TIMEOUT",
	"server.shutdown_timeout":    "GODRIVES_SHUTDOWN_TIMEOUT",
	"logging.level":              "GODRIVES_LOG_LEVEL",
	"logging.profile":            "GODRIVES_LOG_PROFILE",
	"provider.name":              "GODRIVES_PROVIDER",
	"provider.access_key_id":     "GODRIVES_ACCESS_KEY_ID",
	"provider.secret_access_key": "GODRIVES_SECRET_ACCESS_KEY",
	"provider.session_token":     "GODRIVES_SESSION_TOKEN",
	"provider.region":            "GODRIVES_REGION",
	"provider.endpoint":          "GODRIVES_ENDPOINT",
	"provider.api_base_url":      "GODRIVES_API_BASE_URL",
	"provider.project":           "GODRIVES_PROJECT",
	"provider.file_root":         "GODRIVES_FILE_ROOT",
	"client.timeout":             "GODRIVES_CLIENT_TIMEOUT",
	"client.per_page":            "GODRIVES_CLIENT_PER_PAGE",
	"client.rate_limit":          "GODRIVES_CLIENT_RATE_LIMIT",
	"workers":                    "GODRIVES_WORKERS",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "structured")

	v.SetDefault("provider.name", "s3")
	v.SetDefault("provider.region", "")
	v.SetDefault("provider.file_root", "")

	v.SetDefault("client.timeout", "30s")
	v.SetDefault("client.per_page", 100)
	v.SetDefault("client.rate_limit", 0)

	v.SetDefault("workers", 4)
}

var (
	loadedMu sync.RWMutex
	loaded   *Config
)

// Load builds the configuration. Optional override maps take precedence
// over environment variables and config files; the loaded config is also
// retained for GetConfig.
func Load(ctx context.Context, overrides ...map[string]any) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("godrives")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/godrives")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	for _, override := range overrides {
		if err := v.MergeConfigMap(override); err != nil {
			return nil, fmt.Errorf("applying overrides: %w", err)
		}
		// MergeConfigMap sits below env in viper precedence; re-set the
		// leaves explicitly so runtime overrides win.
		applyOverrides(v, "", override)
	}

	var cfg Config
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	loadedMu.Lock()
	loaded = &cfg
	loadedMu.Unlock()
	return &cfg, nil
}

func applyOverrides(v *viper.Viper, prefix string, values map[string]any) {
	for key, value := range values {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			applyOverrides(v, full, nested)
			continue
		}
		v.Set(full, value)
	}
}

// GetConfig returns the most recently loaded configuration, or nil when
// Load has not run.
func GetConfig() *Config {
	loadedMu.RLock()
	defer loadedMu.RUnlock()
	return loaded
}

// EnvVar returns the environment variable bound to a config key, for
// diagnostics output.
func EnvVar(key string) string {
	return envBindings[strings.ToLower(key)]
}

