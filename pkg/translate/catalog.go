package translate

import (
	"sort"
	"strings"
)

// AutoDetect is the display name offered for letting the backend infer the
// source language.
const AutoDetect = "Detect language"

// Catalog maps human-readable language names to backend language codes.
type Catalog map[string]string

// DefaultCatalog is the process-wide language list offered to front-ends.
// It is never modified after initialization.
var DefaultCatalog = Catalog{
	"English":    "en",
	"German":     "de",
	"French":     "fr",
	"Spanish":    "es",
	"Italian":    "it",
	"Portuguese": "pt",
	"Dutch":      "nl",
	"Polish":     "pl",
	"Russian":    "ru",
	"Chinese":    "zh",
	"Japanese":   "ja",
	"Korean":     "ko",
	"Arabic":     "ar",
	"Hindi":      "hi",
	"Turkish":    "tr",
}

// Names returns the catalog's display names in alphabetical order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Codes returns the catalog's language codes in alphabetical order.
func (c Catalog) Codes() []string {
	codes := make([]string, 0, len(c))
	for _, code := range c {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Resolve turns a display name or a language code into a backend code.
// Display names match case-insensitively; codes are normalized with
// NormalizeCode. The auto-detect choice resolves to "".
func (c Catalog) Resolve(lang string) (string, bool) {
	lang = strings.TrimSpace(lang)
	if IsAutoDetect(lang) {
		return "", true
	}

	for name, code := range c {
		if strings.EqualFold(name, lang) {
			return code, true
		}
	}

	code := NormalizeCode(lang)
	for _, known := range c {
		if known == code {
			return code, true
		}
	}
	return "", false
}

// NormalizeCode converts a BCP 47 style tag to the base ISO 639-1 code
// backends expect.
// Examples:
//   - "EN" -> "en"
//   - "fr-CA" -> "fr"
//   - "en_US" -> "en"
func NormalizeCode(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if idx := strings.IndexAny(lang, "-_"); idx >= 0 {
		lang = lang[:idx]
	}
	return lang
}
