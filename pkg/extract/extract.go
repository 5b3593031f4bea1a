// Package extract turns uploaded documents into a single text blob for translation.
package extract

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
)

// Kind identifies the document format an Extractor handles.
type Kind string

const (
	// KindPlainText is UTF-8 encoded plain text.
	KindPlainText Kind = "text"
	// KindPDF is a PDF document.
	KindPDF Kind = "pdf"
)

// ErrDecode is returned when document bytes are not valid UTF-8 text.
var ErrDecode = errors.New("content is not valid UTF-8")

// ErrUnsupportedKind is returned when no extractor exists for a document type.
var ErrUnsupportedKind = errors.New("unsupported document type")

// Extractor reads a whole document and returns its text.
type Extractor interface {
	Extract(r io.Reader) (string, error)
}

// ExtractionError wraps any failure to read a document as text.
type ExtractionError struct {
	Kind Kind
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Kind, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// KindForContentType maps an upload's MIME type to a document kind.
// Parameters such as charset are ignored.
func KindForContentType(contentType string) (Kind, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	switch mediaType {
	case "text/plain":
		return KindPlainText, nil
	case "application/pdf":
		return KindPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, contentType)
	}
}

// KindForFilename maps a file extension to a document kind.
func KindForFilename(name string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".text":
		return KindPlainText, nil
	case ".pdf":
		return KindPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, name)
	}
}
