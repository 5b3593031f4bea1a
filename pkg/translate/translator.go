package translate

import (
	"context"
)

// Translator defines the interface for machine translation backends.
// One call to Translate is one attempt against the backend; retries and
// chunking live above this interface, so a pipeline can switch between a
// hosted endpoint and a local model without changing anything else.
type Translator interface {
	// Translate translates text from source language to target language.
	// sourceLang may be empty, meaning the backend should detect it.
	// Language codes are ISO 639-1 (e.g., "en", "de").
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)

	// CheckHealth verifies that the translation backend is ready and operational.
	CheckHealth(ctx context.Context) error

	// SupportedLanguages returns a list of language codes supported by this backend.
	SupportedLanguages(ctx context.Context) ([]string, error)
}

// IsAutoDetect reports whether a source language value asks the backend to
// infer the language itself.
func IsAutoDetect(lang string) bool {
	switch lang {
	case "", "auto", AutoDetect:
		return true
	default:
		return false
	}
}
