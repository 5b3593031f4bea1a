package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dasmlab/tranzlate/pkg/config"
	"github.com/dasmlab/tranzlate/pkg/pipeline"
	"github.com/dasmlab/tranzlate/pkg/translate"
)

var (
	cfgFile  string
	logLevel string

	// Backend overrides
	engine   string
	endpoint string
	model    string

	// Pipeline overrides
	workers  int
	maxWords int
)

var rootCmd = &cobra.Command{
	Use:   "tranzlate",
	Short: "Chunked, parallel machine translation of text, documents and PDFs",
	Long: `tranzlate splits text into word chunks, translates them concurrently
through a machine translation backend and reassembles the result in order.

Engines:
  huggingface     - Hugging Face inference endpoint (default)
  libretranslate  - self-hosted LibreTranslate
  argos           - Argos Translate HTTP wrapper
  local           - NLLB-200 model in a local worker process
  lambda          - model hosted on AWS Lambda
  openai          - OpenAI-compatible chat completion API`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (.yaml, .yml or .toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&engine, "engine", "", "Translation engine (overrides config)")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "Backend base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "Backend model (overrides config)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "Concurrent chunk translations (overrides config)")
	rootCmd.PersistentFlags().IntVar(&maxWords, "max-words", 0, "Words per chunk (overrides config)")
}

// app holds everything a command needs to translate.
type app struct {
	cfg        *config.Config
	logger     *logrus.Logger
	translator translate.Translator
	pipeline   *pipeline.Pipeline
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if engine != "" {
		cfg.Backend.Engine = engine
	}
	if endpoint != "" {
		cfg.Backend.Endpoint = endpoint
	}
	if model != "" {
		cfg.Backend.Model = model
	}
	if workers != 0 {
		cfg.Pipeline.Workers = workers
	}
	if maxWords != 0 {
		cfg.Pipeline.MaxWords = maxWords
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.WithError(err).Warn("Invalid log level, using info")
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// newApp builds the translator and pipeline from configuration.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := newLogger(cfg.LogLevel)

	translator, err := translate.NewTranslator(ctx, cfg.TranslatorConfig(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create translator: %w", err)
	}

	p, err := pipeline.New(cfg.PipelineConfig(), translator, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	return &app{
		cfg:        cfg,
		logger:     logger,
		translator: translator,
		pipeline:   p,
	}, nil
}

// close releases backends that hold resources, such as a local model worker.
func (a *app) close() {
	if closer, ok := a.translator.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			a.logger.WithError(err).Warn("Failed to close translator")
		}
	}
}

// resolveLanguages maps display names or codes onto backend codes.
func resolveLanguages(sourceLang, targetLang string) (string, string, error) {
	source, ok := translate.DefaultCatalog.Resolve(sourceLang)
	if !ok {
		return "", "", fmt.Errorf("unsupported source language: %q", sourceLang)
	}
	target, ok := translate.DefaultCatalog.Resolve(targetLang)
	if !ok || target == "" {
		return "", "", fmt.Errorf("unsupported target language: %q", targetLang)
	}
	return source, target, nil
}
