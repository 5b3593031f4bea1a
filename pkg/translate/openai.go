package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// DefaultOpenAIModel is the chat model used when none is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// openaiSystemPrompt instructs the model to behave as a plain translation engine.
const openaiSystemPrompt = `You are a translation engine. Translate the user's text %s into %s.
Output ONLY the translation, nothing else. Do not add explanations, quotes or comments.`

// OpenAIClient implements the Translator interface with an OpenAI-compatible
// chat completion API (OpenAI, Ollama, vLLM, ...).
type OpenAIClient struct {
	client          *openai.Client
	model           string
	maxOutputLength int
	logger          *logrus.Logger
}

// NewOpenAIClient creates a chat-completion backed translator.
// baseURL may be empty for the public OpenAI API.
func NewOpenAIClient(baseURL, apiKey, model string, maxOutputLength int, logger *logrus.Logger) *OpenAIClient {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if maxOutputLength <= 0 {
		maxOutputLength = DefaultMaxOutputLength
	}
	if logger == nil {
		logger = logrus.New()
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}

	return &OpenAIClient{
		client:          openai.NewClientWithConfig(cfg),
		model:           model,
		maxOutputLength: maxOutputLength,
		logger:          logger,
	}
}

// languageName turns a code into a name the model understands.
func languageName(code string) string {
	for name, c := range DefaultCatalog {
		if c == NormalizeCode(code) {
			return name
		}
	}
	return code
}

// Translate asks the model for a translation of text.
func (c *OpenAIClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	c.logger.WithFields(logrus.Fields{
		"model":       c.model,
		"source_lang": sourceLang,
		"target_lang": targetLang,
		"text_length": len(text),
	}).Debug("Translating text with chat completion")

	from := "from its detected language"
	if !IsAutoDetect(sourceLang) {
		from = "from " + languageName(sourceLang)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: c.maxOutputLength,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(openaiSystemPrompt, from, languageName(targetLang))},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", openaiError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("decode response: no choices returned")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// openaiError maps API errors carrying an HTTP status onto *StatusError.
func openaiError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &StatusError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &StatusError{StatusCode: reqErr.HTTPStatusCode, Message: truncate(reqErr.Error(), maxErrorBody)}
	}
	return fmt.Errorf("request failed: %w", err)
}

// CheckHealth verifies the API is reachable and the key is accepted.
func (c *OpenAIClient) CheckHealth(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", openaiError(err))
	}
	return nil
}

// SupportedLanguages returns the catalog codes.
func (c *OpenAIClient) SupportedLanguages(ctx context.Context) ([]string, error) {
	return DefaultCatalog.Codes(), nil
}
