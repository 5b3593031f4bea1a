package translate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultHuggingFaceURL is the base URL of the hosted inference API.
	DefaultHuggingFaceURL = "https://api-inference.huggingface.co"
	// DefaultHuggingFaceModel is the MarianMT model used when none is configured.
	DefaultHuggingFaceModel = "Helsinki-NLP/opus-mt-en-de"
	// DefaultHuggingFaceTimeout is the default timeout for HTTP requests.
	DefaultHuggingFaceTimeout = 60 * time.Second
	// DefaultMaxOutputLength caps the generated translation length per chunk.
	DefaultMaxOutputLength = 500
)

// HuggingFaceClient implements the Translator interface against a Hugging Face
// inference endpoint hosting a sequence-to-sequence translation model.
type HuggingFaceClient struct {
	url             string
	maxOutputLength int
	client          jsonClient
	logger          *logrus.Logger
}

// NewHuggingFaceClient creates a new inference endpoint client.
// If model is empty, baseURL is used as the full endpoint URL (dedicated
// Inference Endpoints); otherwise requests go to baseURL/models/model.
func NewHuggingFaceClient(baseURL, model, apiKey string, maxOutputLength int, logger *logrus.Logger) *HuggingFaceClient {
	if baseURL == "" {
		baseURL = DefaultHuggingFaceURL
	}
	if maxOutputLength <= 0 {
		maxOutputLength = DefaultMaxOutputLength
	}
	if logger == nil {
		logger = logrus.New()
	}

	url := strings.TrimRight(baseURL, "/")
	if model != "" {
		url = url + "/models/" + model
	}

	client := newJSONClient(DefaultHuggingFaceTimeout, logger)
	if apiKey != "" {
		client.headers["Authorization"] = "Bearer " + apiKey
	}

	return &HuggingFaceClient{
		url:             url,
		maxOutputLength: maxOutputLength,
		client:          client,
		logger:          logger,
	}
}

// hfRequest represents an inference API request.
type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	MaxLength int    `json:"max_length"`
	SrcLang   string `json:"src_lang,omitempty"` // honored by multilingual models
	TgtLang   string `json:"tgt_lang,omitempty"`
}

// hfTranslation is one element of the inference API's response array.
type hfTranslation struct {
	TranslationText string `json:"translation_text"`
}

// Translate sends text to the inference endpoint.
// Single-pair models ignore the language hints.
func (c *HuggingFaceClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	c.logger.WithFields(logrus.Fields{
		"source_lang": sourceLang,
		"target_lang": targetLang,
		"text_length": len(text),
	}).Debug("Translating text with Hugging Face inference endpoint")

	reqPayload := hfRequest{
		Inputs: text,
		Parameters: hfParameters{
			MaxLength: c.maxOutputLength,
			TgtLang:   targetLang,
		},
	}
	if !IsAutoDetect(sourceLang) {
		reqPayload.Parameters.SrcLang = sourceLang
	}

	var translations []hfTranslation
	if err := c.client.post(ctx, c.url, &reqPayload, &translations); err != nil {
		return "", err
	}
	if len(translations) == 0 {
		return "", fmt.Errorf("decode response: empty translation list")
	}

	return translations[0].TranslationText, nil
}

// CheckHealth verifies the model endpoint answers with a tiny translation.
func (c *HuggingFaceClient) CheckHealth(ctx context.Context) error {
	c.logger.Debug("Checking Hugging Face endpoint health")

	if _, err := c.Translate(ctx, "ok", "", ""); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	c.logger.Debug("Hugging Face endpoint health check passed")
	return nil
}

// SupportedLanguages returns the catalog codes; the endpoint itself does not
// advertise its language pairs.
func (c *HuggingFaceClient) SupportedLanguages(ctx context.Context) ([]string, error) {
	return DefaultCatalog.Codes(), nil
}
