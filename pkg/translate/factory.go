package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// EngineType represents the type of translation engine to use.
type EngineType string

const (
	// EngineHuggingFace uses a Hugging Face inference endpoint.
	EngineHuggingFace EngineType = "huggingface"
	// EngineLibreTranslate uses LibreTranslate as the backend.
	EngineLibreTranslate EngineType = "libretranslate"
	// EngineArgos uses Argos Translate as the backend.
	EngineArgos EngineType = "argos"
	// EngineLocal runs a sequence-to-sequence model in a local worker process.
	EngineLocal EngineType = "local"
	// EngineLambda invokes a translation model hosted on AWS Lambda.
	EngineLambda EngineType = "lambda"
	// EngineOpenAI uses an OpenAI-compatible chat completion API.
	EngineOpenAI EngineType = "openai"
)

// Engines lists every supported engine type.
var Engines = []EngineType{
	EngineHuggingFace,
	EngineLibreTranslate,
	EngineArgos,
	EngineLocal,
	EngineLambda,
	EngineOpenAI,
}

// Config holds configuration for creating a Translator instance.
type Config struct {
	// Engine specifies which translation engine to use.
	Engine EngineType
	// BaseURL is the base URL for HTTP engines. Each engine has its own default.
	BaseURL string
	// APIKey authenticates against hosted engines (bearer token for Hugging Face).
	APIKey string
	// Model selects the model for engines that host several.
	Model string
	// MaxOutputLength caps generated output per chunk.
	MaxOutputLength int
	// LambdaFunction and LambdaRegion configure the lambda engine.
	LambdaFunction string
	LambdaRegion   string
	// WorkerScript is the local engine's model worker script.
	WorkerScript string
	// Logger is the logger instance to use. If nil, a default logger is created.
	Logger *logrus.Logger
}

// NewTranslator creates a new Translator instance based on the configuration.
func NewTranslator(ctx context.Context, cfg Config) (Translator, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	cfg.Logger.WithFields(logrus.Fields{
		"engine":   cfg.Engine,
		"base_url": cfg.BaseURL,
		"model":    cfg.Model,
	}).Info("Creating translator instance")

	switch cfg.Engine {
	case EngineHuggingFace:
		model := cfg.Model
		if model == "" && cfg.BaseURL == "" {
			model = DefaultHuggingFaceModel
		}
		return NewHuggingFaceClient(cfg.BaseURL, model, cfg.APIKey, cfg.MaxOutputLength, cfg.Logger), nil
	case EngineLibreTranslate:
		return NewLibreTranslateClient(cfg.BaseURL, cfg.APIKey, cfg.Logger), nil
	case EngineArgos:
		return NewArgosClient(cfg.BaseURL, cfg.Logger), nil
	case EngineLocal:
		return NewLocalModelTranslator(cfg.WorkerScript, cfg.Model, cfg.MaxOutputLength, cfg.Logger), nil
	case EngineLambda:
		return NewLambdaClient(ctx, cfg.LambdaFunction, cfg.LambdaRegion, cfg.Logger)
	case EngineOpenAI:
		return NewOpenAIClient(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.MaxOutputLength, cfg.Logger), nil
	default:
		cfg.Logger.WithFields(logrus.Fields{
			"engine": cfg.Engine,
		}).Error("Unknown translation engine")
		return nil, fmt.Errorf("unknown translation engine: %s", cfg.Engine)
	}
}

// ParseEngineType parses a string into an EngineType, case-insensitively.
func ParseEngineType(s string) (EngineType, error) {
	candidate := EngineType(strings.ToLower(strings.TrimSpace(s)))
	for _, engine := range Engines {
		if candidate == engine {
			return engine, nil
		}
	}

	names := make([]string, len(Engines))
	for i, engine := range Engines {
		names[i] = string(engine)
	}
	return "", fmt.Errorf("unknown engine type: %s (supported: %s)", s, strings.Join(names, ", "))
}
