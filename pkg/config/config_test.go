package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dasmlab/tranzlate/pkg/translate"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvAPIKey, EnvHFAPIKey, EnvEndpoint, EnvEngine} {
		t.Setenv(key, "")
	}
}

func TestDefault(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend.Engine != "huggingface" {
		t.Errorf("Engine = %q, want huggingface", cfg.Backend.Engine)
	}
	if cfg.Pipeline.MaxWords != 100 || cfg.Pipeline.Workers != 5 {
		t.Errorf("Pipeline = %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.RetryAttempts != 3 || cfg.Pipeline.RetryDelay.Duration != 2*time.Second {
		t.Errorf("retry = %d/%v", cfg.Pipeline.RetryAttempts, cfg.Pipeline.RetryDelay.Duration)
	}
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "tranzlate.yaml", `
backend:
  engine: libretranslate
  endpoint: http://translate.local:5000
  api_key: file-key
pipeline:
  max_words: 50
  workers: 8
  retry_delay: 500ms
server:
  http_port: 9090
log_level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend.Engine != "libretranslate" || cfg.Backend.Endpoint != "http://translate.local:5000" {
		t.Errorf("Backend = %+v", cfg.Backend)
	}
	if cfg.Pipeline.MaxWords != 50 || cfg.Pipeline.Workers != 8 {
		t.Errorf("Pipeline = %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.RetryDelay.Duration != 500*time.Millisecond {
		t.Errorf("RetryDelay = %v, want 500ms", cfg.Pipeline.RetryDelay.Duration)
	}
	// Unset keys keep their defaults.
	if cfg.Pipeline.RetryAttempts != 3 || cfg.Server.GRPCPort != 50051 {
		t.Errorf("defaults lost: attempts=%d grpc_port=%d", cfg.Pipeline.RetryAttempts, cfg.Server.GRPCPort)
	}
	if cfg.Server.HTTPPort != 9090 || cfg.LogLevel != "debug" {
		t.Errorf("Server = %+v, LogLevel = %q", cfg.Server, cfg.LogLevel)
	}
}

func TestLoad_TOML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "tranzlate.toml", `
log_level = "warn"

[backend]
engine = "openai"
model = "gpt-4o-mini"

[pipeline]
retry_attempts = 5
retry_delay = "1s"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend.Engine != "openai" || cfg.Backend.Model != "gpt-4o-mini" {
		t.Errorf("Backend = %+v", cfg.Backend)
	}
	if cfg.Pipeline.RetryAttempts != 5 || cfg.Pipeline.RetryDelay.Duration != time.Second {
		t.Errorf("Pipeline = %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.MaxWords != 100 {
		t.Errorf("MaxWords = %d, want default 100", cfg.Pipeline.MaxWords)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "tranzlate.yml", "backend:\n  engine: huggingface\n  api_key: file-key\n")

	t.Setenv(EnvHFAPIKey, "hf-key")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend.APIKey != "hf-key" {
		t.Errorf("APIKey = %q, want hf-key", cfg.Backend.APIKey)
	}

	t.Setenv(EnvAPIKey, "main-key")
	t.Setenv(EnvEndpoint, "https://endpoint.example")
	t.Setenv(EnvEngine, "argos")
	cfg, err = Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend.APIKey != "main-key" {
		t.Errorf("APIKey = %q, want main-key", cfg.Backend.APIKey)
	}
	if cfg.Backend.Endpoint != "https://endpoint.example" || cfg.Backend.Engine != "argos" {
		t.Errorf("Backend = %+v", cfg.Backend)
	}
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown engine", "a.yaml", "backend:\n  engine: deepl\n"},
		{"zero workers", "b.yaml", "pipeline:\n  workers: 0\n"},
		{"negative max words", "c.toml", "[pipeline]\nmax_words = -1\n"},
		{"bad log level", "d.yaml", "log_level: loud\n"},
		{"bad port", "e.yaml", "server:\n  http_port: 70000\n"},
		{"unsupported extension", "f.json", "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("Load() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestLoad_ParseErrors(t *testing.T) {
	clearEnv(t)
	if _, err := Load(writeFile(t, "bad.yaml", "pipeline:\n  retry_delay: soon\n")); err == nil {
		t.Error("expected error for unparsable duration")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestConversions(t *testing.T) {
	cfg := Default()
	cfg.Backend.Engine = "LibreTranslate"
	cfg.Backend.Endpoint = "http://lt:5000"
	cfg.Pipeline.RetryDelay = Duration{time.Second}

	tc := cfg.TranslatorConfig(nil)
	if tc.Engine != translate.EngineLibreTranslate || tc.BaseURL != "http://lt:5000" {
		t.Errorf("TranslatorConfig() = %+v", tc)
	}

	pc := cfg.PipelineConfig()
	if pc.MaxWords != 100 || pc.Workers != 5 || pc.Retry.Attempts != 3 || pc.Retry.Delay != time.Second {
		t.Errorf("PipelineConfig() = %+v", pc)
	}
	if pc.Engine != "libretranslate" {
		t.Errorf("Engine = %q", pc.Engine)
	}
}
