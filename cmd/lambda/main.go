// Package main is the entry point for the tranzlate Lambda function.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"

	"github.com/dasmlab/tranzlate/pkg/config"
	"github.com/dasmlab/tranzlate/pkg/pipeline"
	"github.com/dasmlab/tranzlate/pkg/translate"
)

// The pipeline is built on the first invocation and reused while the
// instance stays warm.
var (
	initOnce sync.Once
	pipe     *pipeline.Pipeline
	initErr  error
	logger   = newLogger()
)

// configPathEnv names an optional config file bundled with the function.
const configPathEnv = "TRANZLATE_CONFIG"

func main() {
	lambda.Start(handleRequest)
}

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetOutput(os.Stdout)
	return l
}

func getPipeline(ctx context.Context) (*pipeline.Pipeline, error) {
	initOnce.Do(func() {
		cfg, err := config.Load(os.Getenv(configPathEnv))
		if err != nil {
			initErr = fmt.Errorf("failed to load config: %w", err)
			return
		}
		if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
			logger.SetLevel(lvl)
		}

		translator, err := translate.NewTranslator(ctx, cfg.TranslatorConfig(logger))
		if err != nil {
			initErr = fmt.Errorf("failed to create translator: %w", err)
			return
		}
		pipe, initErr = pipeline.New(cfg.PipelineConfig(), translator, logger)
	})
	return pipe, initErr
}

func handleRequest(ctx context.Context, event json.RawMessage) (interface{}, error) {
	// Warmup detection (MUST be first - before any other processing)
	if isWarmupEvent(event) {
		return map[string]string{"status": "warm"}, nil
	}

	var req Request
	if err := json.Unmarshal(event, &req); err != nil {
		return nil, err
	}

	p, err := getPipeline(ctx)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize pipeline")
		return nil, err
	}
	return Handle(ctx, p, req), nil
}
