package extract

import (
	"fmt"
	"io"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/sirupsen/logrus"
)

// PageDocument is an opened paginated document.
// *fitz.Document satisfies it.
type PageDocument interface {
	NumPage() int
	Text(pageNumber int) (string, error)
	Close() error
}

// OpenFunc opens a paginated document from its raw bytes.
type OpenFunc func(data []byte) (PageDocument, error)

// OpenMuPDF opens PDF bytes with MuPDF.
func OpenMuPDF(data []byte) (PageDocument, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// PDFExtractor extracts the text of every page of a PDF, in page order.
type PDFExtractor struct {
	// Open opens the document. Defaults to OpenMuPDF.
	Open   OpenFunc
	logger *logrus.Logger
}

// NewPDFExtractor creates a PDF extractor backed by MuPDF.
func NewPDFExtractor(logger *logrus.Logger) *PDFExtractor {
	if logger == nil {
		logger = logrus.New()
	}
	return &PDFExtractor{
		Open:   OpenMuPDF,
		logger: logger,
	}
}

// Extract concatenates the text of all pages with no separator.
// A page whose text cannot be extracted contributes nothing; only a document
// that cannot be opened at all fails the extraction.
func (e *PDFExtractor) Extract(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", &ExtractionError{Kind: KindPDF, Err: fmt.Errorf("read document: %w", err)}
	}

	open := e.Open
	if open == nil {
		open = OpenMuPDF
	}

	doc, err := open(data)
	if err != nil {
		return "", &ExtractionError{Kind: KindPDF, Err: fmt.Errorf("open pdf: %w", err)}
	}
	defer doc.Close()

	numPages := doc.NumPage()
	var b strings.Builder
	skipped := 0

	for i := 0; i < numPages; i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			skipped++
			e.logger.WithError(err).WithFields(logrus.Fields{
				"page": i + 1,
			}).Warn("No extractable text on page, skipping")
			continue
		}
		b.WriteString(pageText)
	}

	e.logger.WithFields(logrus.Fields{
		"pages":         numPages,
		"skipped_pages": skipped,
		"text_length":   b.Len(),
	}).Debug("Extracted PDF text")

	return b.String(), nil
}
