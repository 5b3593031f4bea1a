// Package config loads tranzlate settings from YAML or TOML files with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/dasmlab/tranzlate/pkg/dispatch"
	"github.com/dasmlab/tranzlate/pkg/pipeline"
	"github.com/dasmlab/tranzlate/pkg/segment"
	"github.com/dasmlab/tranzlate/pkg/translate"
)

// Environment variables that override file values.
const (
	EnvAPIKey   = "TRANZLATE_API_KEY"
	EnvHFAPIKey = "HF_API_KEY"
	EnvEndpoint = "TRANZLATE_ENDPOINT"
	EnvEngine   = "TRANZLATE_ENGINE"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the complete application configuration.
type Config struct {
	Backend  BackendConfig  `yaml:"backend" toml:"backend"`
	Pipeline PipelineConfig `yaml:"pipeline" toml:"pipeline"`
	Server   ServerConfig   `yaml:"server" toml:"server"`
	LogLevel string         `yaml:"log_level" toml:"log_level"`
}

// BackendConfig selects and configures the translation backend.
type BackendConfig struct {
	Engine          string `yaml:"engine" toml:"engine"`
	Endpoint        string `yaml:"endpoint" toml:"endpoint"`
	APIKey          string `yaml:"api_key" toml:"api_key"`
	Model           string `yaml:"model" toml:"model"`
	MaxOutputLength int    `yaml:"max_output_length" toml:"max_output_length"`
	LambdaFunction  string `yaml:"lambda_function" toml:"lambda_function"`
	LambdaRegion    string `yaml:"lambda_region" toml:"lambda_region"`
	WorkerScript    string `yaml:"worker_script" toml:"worker_script"`
}

// PipelineConfig holds chunking, concurrency and retry settings.
type PipelineConfig struct {
	MaxWords      int      `yaml:"max_words" toml:"max_words"`
	Workers       int      `yaml:"workers" toml:"workers"`
	RetryAttempts int      `yaml:"retry_attempts" toml:"retry_attempts"`
	RetryDelay    Duration `yaml:"retry_delay" toml:"retry_delay"`
}

// ServerConfig holds the listen ports of the serve command.
type ServerConfig struct {
	HTTPPort      int   `yaml:"http_port" toml:"http_port"`
	GRPCPort      int   `yaml:"grpc_port" toml:"grpc_port"`
	MaxUploadSize int64 `yaml:"max_upload_size" toml:"max_upload_size"`
}

// Duration wraps time.Duration so it can be written as "2s" in config files.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	retry := translate.DefaultRetryPolicy()
	return &Config{
		Backend: BackendConfig{
			Engine:          string(translate.EngineHuggingFace),
			MaxOutputLength: translate.DefaultMaxOutputLength,
		},
		Pipeline: PipelineConfig{
			MaxWords:      segment.DefaultMaxWords,
			Workers:       dispatch.DefaultWorkers,
			RetryAttempts: retry.Attempts,
			RetryDelay:    Duration{retry.Delay},
		},
		Server: ServerConfig{
			HTTPPort:      8080,
			GRPCPort:      50051,
			MaxUploadSize: 32 << 20,
		},
		LogLevel: "info",
	}
}

// Load reads the file at path over the defaults and applies environment
// overrides. The format is chosen by extension: .yaml/.yml or .toml.
// An empty path yields the defaults with environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		path = os.ExpandEnv(path)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		case ".toml":
			if _, err := toml.Decode(string(data), cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		default:
			return nil, fmt.Errorf("%w: unsupported config file extension %q", ErrInvalid, filepath.Ext(path))
		}
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides backend settings from the environment.
// TRANZLATE_API_KEY takes precedence over HF_API_KEY.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvHFAPIKey); v != "" {
		c.Backend.APIKey = v
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.Backend.APIKey = v
	}
	if v := os.Getenv(EnvEndpoint); v != "" {
		c.Backend.Endpoint = v
	}
	if v := os.Getenv(EnvEngine); v != "" {
		c.Backend.Engine = v
	}
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	if _, err := translate.ParseEngineType(c.Backend.Engine); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Backend.MaxOutputLength < 0 {
		return fmt.Errorf("%w: max_output_length must not be negative", ErrInvalid)
	}
	if err := c.PipelineConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Server.HTTPPort < 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("%w: invalid http_port %d", ErrInvalid, c.Server.HTTPPort)
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("%w: invalid grpc_port %d", ErrInvalid, c.Server.GRPCPort)
	}
	if c.LogLevel != "" {
		if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}
	return nil
}

// TranslatorConfig converts the backend section for translate.NewTranslator.
func (c *Config) TranslatorConfig(logger *logrus.Logger) translate.Config {
	engine, err := translate.ParseEngineType(c.Backend.Engine)
	if err != nil {
		engine = translate.EngineType(c.Backend.Engine)
	}
	return translate.Config{
		Engine:          engine,
		BaseURL:         c.Backend.Endpoint,
		APIKey:          c.Backend.APIKey,
		Model:           c.Backend.Model,
		MaxOutputLength: c.Backend.MaxOutputLength,
		LambdaFunction:  c.Backend.LambdaFunction,
		LambdaRegion:    c.Backend.LambdaRegion,
		WorkerScript:    c.Backend.WorkerScript,
		Logger:          logger,
	}
}

// PipelineConfig converts the pipeline section for pipeline.New.
func (c *Config) PipelineConfig() pipeline.Config {
	return pipeline.Config{
		MaxWords: c.Pipeline.MaxWords,
		Workers:  c.Pipeline.Workers,
		Retry: translate.RetryPolicy{
			Attempts: c.Pipeline.RetryAttempts,
			Delay:    c.Pipeline.RetryDelay.Duration,
		},
		Engine: strings.ToLower(c.Backend.Engine),
	}
}
