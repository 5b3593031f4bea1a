package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/sirupsen/logrus"
)

// lambdaInvoker is the part of the AWS Lambda API the client needs.
type lambdaInvoker interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// LambdaClient implements the Translator interface by invoking an AWS Lambda
// function that hosts a translation model (e.g. an opus-mt MarianMT model).
type LambdaClient struct {
	functionName string
	invoker      lambdaInvoker
	logger       *logrus.Logger
}

// NewLambdaClient creates a client using the default AWS credential chain.
// region may be empty to use the environment's default region.
func NewLambdaClient(ctx context.Context, functionName, region string, logger *logrus.Logger) (*LambdaClient, error) {
	if functionName == "" {
		return nil, fmt.Errorf("lambda function name is required")
	}
	if logger == nil {
		logger = logrus.New()
	}

	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &LambdaClient{
		functionName: functionName,
		invoker:      lambda.NewFromConfig(cfg),
		logger:       logger,
	}, nil
}

// lambdaRequest is the chunked request format the translator functions accept.
type lambdaRequest struct {
	Chunks     [][]string `json:"chunks"`
	SourceLang string     `json:"source_lang,omitempty"`
	TargetLang string     `json:"target_lang,omitempty"`
}

// lambdaResponse is the chunked response format the translator functions return.
type lambdaResponse struct {
	Translations [][]string `json:"translations"`
	Error        string     `json:"error,omitempty"`
}

// Translate invokes the function with a single one-text chunk.
func (c *LambdaClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	c.logger.WithFields(logrus.Fields{
		"function":    c.functionName,
		"source_lang": sourceLang,
		"target_lang": targetLang,
		"text_length": len(text),
	}).Debug("Translating text with Lambda")

	req := lambdaRequest{
		Chunks:     [][]string{{text}},
		TargetLang: targetLang,
	}
	if !IsAutoDetect(sourceLang) {
		req.SourceLang = sourceLang
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	result, err := c.invoker.Invoke(ctx, &lambda.InvokeInput{
		FunctionName: aws.String(c.functionName),
		Payload:      payload,
	})
	if err != nil {
		return "", fmt.Errorf("failed to invoke %s: %w", c.functionName, err)
	}

	if result.StatusCode != 0 && result.StatusCode != http.StatusOK {
		return "", &StatusError{StatusCode: int(result.StatusCode), Message: truncate(string(result.Payload), maxErrorBody)}
	}
	if result.FunctionError != nil {
		return "", fmt.Errorf("lambda error: %s: %s", *result.FunctionError, truncate(string(result.Payload), maxErrorBody))
	}

	var resp lambdaResponse
	if err := json.Unmarshal(result.Payload, &resp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("translator error: %s", resp.Error)
	}
	if len(resp.Translations) == 0 || len(resp.Translations[0]) == 0 {
		return "", fmt.Errorf("translator returned no translations")
	}

	return resp.Translations[0][0], nil
}

// CheckHealth invokes the function with an empty chunk list.
func (c *LambdaClient) CheckHealth(ctx context.Context) error {
	result, err := c.invoker.Invoke(ctx, &lambda.InvokeInput{
		FunctionName: aws.String(c.functionName),
		Payload:      []byte(`{"chunks":[]}`),
	})
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result.FunctionError != nil {
		return fmt.Errorf("health check failed: lambda error: %s", *result.FunctionError)
	}
	return nil
}

// SupportedLanguages returns the catalog codes.
func (c *LambdaClient) SupportedLanguages(ctx context.Context) ([]string, error) {
	return DefaultCatalog.Codes(), nil
}
