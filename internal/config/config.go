package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/askyc/askyc-go/internal/catalog"
)

type Config struct {
	Address               string          `mapstructure:"address" yaml:"address"`
	BackendURL            string          `mapstructure:"backend_url" yaml:"backend_url"`
	LogLevel              string          `mapstructure:"log_level" yaml:"log_level"`
	TelemetryURL          string          `mapstructure:"telemetry_url" yaml:"telemetry_url,omitempty"`
	MaxBodyBytes          int64           `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
	ResponseHeaderTimeout time.Duration   `mapstructure:"response_header_timeout" yaml:"response_header_timeout"`
	Models                []catalog.Model `mapstructure:"models" yaml:"models"`
}

// Load reads config from file, or from config.yaml in . and ./config when
// file is empty. Environment variables prefixed with ASKYC_ override it and a
// .env file in the working directory is loaded first.
func Load(file string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	v := viper.New()
	v.SetDefault("address", ":3000")
	v.SetDefault("backend_url", "http://localhost:8000")
	v.SetDefault("log_level", "info")
	v.SetDefault("max_body_bytes", 1<<20)
	v.SetDefault("response_header_timeout", 60*time.Second)
	v.SetDefault("telemetry_url", "")
	_ = v.BindEnv("models")

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// allow environment variables like ASKYC_BACKEND_URL
	v.SetEnvPrefix("ASKYC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// don't fail if config file is missing, allow env-only config
		var nf viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &nf) {
			return nil, err
		}
	}

	// ASKYC_MODELS arrives as a string holding a YAML (or JSON) list
	if raw, ok := v.Get("models").(string); ok {
		var models []map[string]any
		if err := yaml.Unmarshal([]byte(raw), &models); err != nil {
			return nil, fmt.Errorf("parse ASKYC_MODELS: %w", err)
		}
		v.Set("models", models)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	if len(c.Models) == 0 {
		c.Models = catalog.Defaults
	}
	return &c, nil
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
