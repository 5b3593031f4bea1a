package translate

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultArgosURL is the default base URL for an Argos Translate HTTP wrapper.
	DefaultArgosURL = "http://127.0.0.1:5000"
	// DefaultArgosTimeout is the default timeout for HTTP requests.
	DefaultArgosTimeout = 30 * time.Second
)

// ArgosClient implements the Translator interface using Argos Translate
// running behind a small HTTP service.
type ArgosClient struct {
	baseURL string
	client  jsonClient
	logger  *logrus.Logger
}

// NewArgosClient creates a new Argos Translate client.
func NewArgosClient(baseURL string, logger *logrus.Logger) *ArgosClient {
	if baseURL == "" {
		baseURL = DefaultArgosURL
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &ArgosClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newJSONClient(DefaultArgosTimeout, logger),
		logger:  logger,
	}
}

// argosTranslateRequest represents an Argos Translate API request.
type argosTranslateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

// argosTranslateResponse represents an Argos Translate API response.
type argosTranslateResponse struct {
	TranslatedText string `json:"translated_text"`
}

// Translate translates text from source language to target language.
// Argos has no language detection; an empty source is sent as "auto" and left
// to the wrapper service.
func (c *ArgosClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	c.logger.WithFields(logrus.Fields{
		"source_lang": sourceLang,
		"target_lang": targetLang,
		"text_length": len(text),
	}).Debug("Translating text with Argos")

	source := sourceLang
	if IsAutoDetect(source) {
		source = "auto"
	}

	var argosResp argosTranslateResponse
	err := c.client.post(ctx, c.baseURL+"/translate", &argosTranslateRequest{
		Text:       text,
		SourceLang: source,
		TargetLang: targetLang,
	}, &argosResp)
	if err != nil {
		return "", err
	}

	return argosResp.TranslatedText, nil
}

// CheckHealth verifies that Argos Translate is ready and operational.
// Wrappers without a /health endpoint are treated as healthy.
func (c *ArgosClient) CheckHealth(ctx context.Context) error {
	c.logger.Debug("Checking Argos Translate health")

	if err := c.client.get(ctx, c.baseURL+"/health", nil); err != nil {
		c.logger.WithError(err).Warn("Argos health endpoint not available, assuming healthy")
		return nil
	}

	c.logger.Debug("Argos Translate health check passed")
	return nil
}

// SupportedLanguages returns a list of language codes supported by Argos Translate.
func (c *ArgosClient) SupportedLanguages(ctx context.Context) ([]string, error) {
	return []string{
		"en", "es", "fr", "de", "it", "pt", "ru", "zh", "ja", "ko",
		"ar", "hi", "tr", "pl", "nl", "sv", "da", "fi", "no", "cs",
		"ro", "hu", "bg", "hr", "sk", "sl", "et", "lv", "lt", "el",
	}, nil
}
