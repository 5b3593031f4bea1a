package extract

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// PlainTextExtractor decodes raw bytes as UTF-8 text.
type PlainTextExtractor struct{}

// NewPlainTextExtractor creates a plain text extractor.
func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

// Extract reads r fully and returns its contents as a string.
// Bytes that are not valid UTF-8 fail with ErrDecode.
func (e *PlainTextExtractor) Extract(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", &ExtractionError{Kind: KindPlainText, Err: fmt.Errorf("read document: %w", err)}
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return "", &ExtractionError{Kind: KindPlainText, Err: ErrDecode}
	}

	return string(data), nil
}
