// Package pipeline turns source text, plain-text documents and PDFs into
// translated text by chaining extraction, segmentation, parallel dispatch and
// reassembly.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dasmlab/tranzlate/pkg/dispatch"
	"github.com/dasmlab/tranzlate/pkg/extract"
	"github.com/dasmlab/tranzlate/pkg/segment"
	"github.com/dasmlab/tranzlate/pkg/translate"
)

// ErrInvalidConfig is returned by New for unusable configuration values.
var ErrInvalidConfig = errors.New("invalid pipeline configuration")

// Source labels used in logs and metrics.
const (
	SourceText     = "text"
	SourceDocument = "document"
	SourcePDF      = "pdf"
)

// Config holds the tunables of a pipeline.
type Config struct {
	// MaxWords is the largest number of words sent to the backend in one chunk.
	MaxWords int
	// Workers bounds the number of chunks translated concurrently.
	Workers int
	// Retry is the per-chunk retry policy.
	Retry translate.RetryPolicy
	// Engine labels metrics and logs with the backend in use.
	Engine string
}

// DefaultConfig returns 100-word chunks, 5 workers and 3 attempts 2s apart.
func DefaultConfig() Config {
	return Config{
		MaxWords: segment.DefaultMaxWords,
		Workers:  dispatch.DefaultWorkers,
		Retry:    translate.DefaultRetryPolicy(),
		Engine:   string(translate.EngineHuggingFace),
	}
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	if c.MaxWords <= 0 {
		return fmt.Errorf("%w: max words must be positive, got %d", ErrInvalidConfig, c.MaxWords)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.Retry.Attempts <= 0 {
		return fmt.Errorf("%w: retry attempts must be positive, got %d", ErrInvalidConfig, c.Retry.Attempts)
	}
	if c.Retry.Delay < 0 {
		return fmt.Errorf("%w: retry delay must not be negative, got %v", ErrInvalidConfig, c.Retry.Delay)
	}
	return nil
}

// Pipeline is the entry point front-ends call. It is safe for concurrent use;
// each call builds its own chunks and results.
type Pipeline struct {
	// PlainTextExtractor and PDFExtractor extract text from uploaded documents.
	PlainTextExtractor extract.Extractor
	PDFExtractor       extract.Extractor

	cfg        Config
	dispatcher *dispatch.Dispatcher
	logger     *logrus.Logger
}

// New creates a pipeline translating through backend.
func New(cfg Config, backend translate.Translator, logger *logrus.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if backend == nil {
		return nil, fmt.Errorf("%w: backend is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = logrus.New()
	}

	client := translate.NewClient(backend, cfg.Retry, cfg.Engine, logger)

	return &Pipeline{
		PlainTextExtractor: extract.NewPlainTextExtractor(),
		PDFExtractor:       extract.NewPDFExtractor(logger),
		cfg:                cfg,
		dispatcher:         dispatch.New(client, cfg.Workers, logger),
		logger:             logger,
	}, nil
}

// Config returns the pipeline's configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// TranslateText translates text and returns the reassembled translation.
// Chunks that could not be translated appear as inline error markers.
func (p *Pipeline) TranslateText(ctx context.Context, text, sourceLang, targetLang string) string {
	doc, err := p.Text(ctx, text, sourceLang, targetLang)
	if err != nil {
		return fmt.Sprintf("Error processing the text: %v", err)
	}
	return doc.Text
}

// TranslateDocument extracts text from a UTF-8 document and translates it.
// Extraction failures are reported as a displayable message.
func (p *Pipeline) TranslateDocument(ctx context.Context, r io.Reader, sourceLang, targetLang string) string {
	doc, err := p.Document(ctx, r, sourceLang, targetLang)
	if err != nil {
		return fmt.Sprintf("Error processing the document: %v", err)
	}
	return doc.Text
}

// TranslatePDF extracts text from a PDF and translates it.
// Extraction failures are reported as a displayable message.
func (p *Pipeline) TranslatePDF(ctx context.Context, r io.Reader, sourceLang, targetLang string) string {
	doc, err := p.PDF(ctx, r, sourceLang, targetLang)
	if err != nil {
		return fmt.Sprintf("Error processing the PDF: %v", err)
	}
	return doc.Text
}

// Text translates text and returns the structured result.
// The returned error is non-nil only for segmentation failures.
func (p *Pipeline) Text(ctx context.Context, text, sourceLang, targetLang string) (*dispatch.Document, error) {
	return p.run(ctx, SourceText, text, sourceLang, targetLang)
}

// Document extracts and translates a UTF-8 document.
func (p *Pipeline) Document(ctx context.Context, r io.Reader, sourceLang, targetLang string) (*dispatch.Document, error) {
	return p.extractAndRun(ctx, SourceDocument, p.PlainTextExtractor, r, sourceLang, targetLang)
}

// PDF extracts and translates a PDF document.
func (p *Pipeline) PDF(ctx context.Context, r io.Reader, sourceLang, targetLang string) (*dispatch.Document, error) {
	return p.extractAndRun(ctx, SourcePDF, p.PDFExtractor, r, sourceLang, targetLang)
}

func (p *Pipeline) extractAndRun(ctx context.Context, source string, extractor extract.Extractor, r io.Reader, sourceLang, targetLang string) (*dispatch.Document, error) {
	text, err := extractor.Extract(r)
	if err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{
			"source": source,
		}).Warn("Text extraction failed")
		translate.RecordDocument(source, translate.OutcomeError)
		return nil, err
	}
	return p.run(ctx, source, text, sourceLang, targetLang)
}

func (p *Pipeline) run(ctx context.Context, source, text, sourceLang, targetLang string) (*dispatch.Document, error) {
	requestID := uuid.New().String()
	logger := p.logger.WithFields(logrus.Fields{
		"request_id":  requestID,
		"source":      source,
		"source_lang": sourceLang,
		"target_lang": targetLang,
	})

	if translate.IsAutoDetect(sourceLang) {
		sourceLang = ""
	}

	chunks, err := segment.Split(text, p.cfg.MaxWords)
	if err != nil {
		translate.RecordDocument(source, translate.OutcomeError)
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"chunks":      len(chunks),
		"text_length": len(text),
	}).Debug("Translation started")

	startTime := time.Now()
	doc := p.dispatcher.Dispatch(ctx, chunks, sourceLang, targetLang)

	outcome := translate.OutcomeComplete
	if doc.Partial() {
		outcome = translate.OutcomePartial
		logger.WithFields(logrus.Fields{
			"failed_chunks": len(doc.Failures),
			"chunks":        doc.Chunks,
		}).Warn("Translation completed with failed chunks")
	}
	translate.RecordDocument(source, outcome)

	logger.WithFields(logrus.Fields{
		"chunks":      doc.Chunks,
		"duration_ms": time.Since(startTime).Milliseconds(),
	}).Info("Translation completed")

	return doc, nil
}
