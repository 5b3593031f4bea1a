package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/dasmlab/tranzlate/pkg/dispatch"
	"github.com/dasmlab/tranzlate/pkg/extract"
	"github.com/dasmlab/tranzlate/pkg/translate"
)

// DefaultMaxUploadSize bounds uploaded documents.
const DefaultMaxUploadSize = 32 << 20

// Pipeline is the part of *pipeline.Pipeline the HTTP server calls.
type Pipeline interface {
	Text(ctx context.Context, text, sourceLang, targetLang string) (*dispatch.Document, error)
	Document(ctx context.Context, r io.Reader, sourceLang, targetLang string) (*dispatch.Document, error)
	PDF(ctx context.Context, r io.Reader, sourceLang, targetLang string) (*dispatch.Document, error)
}

// HTTPServer exposes the translation pipeline over a JSON API.
type HTTPServer struct {
	pipeline      Pipeline
	backend       translate.Translator
	catalog       translate.Catalog
	logger        *logrus.Logger
	port          int
	maxUploadSize int64
	server        *http.Server
}

// NewHTTPServer creates a new HTTP server. backend is only used for the
// language listing and may be nil.
func NewHTTPServer(p Pipeline, backend translate.Translator, logger *logrus.Logger, port int, maxUploadSize int64) *HTTPServer {
	if logger == nil {
		logger = logrus.New()
	}
	if maxUploadSize <= 0 {
		maxUploadSize = DefaultMaxUploadSize
	}
	return &HTTPServer{
		pipeline:      p,
		backend:       backend,
		catalog:       translate.DefaultCatalog,
		logger:        logger,
		port:          port,
		maxUploadSize: maxUploadSize,
	}
}

// Handler returns the server's routes.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	// Plain text translation (POST /api/v1/translate)
	mux.HandleFunc("/api/v1/translate", s.handleTranslate)

	// Document upload, text/plain or application/pdf (POST /api/v1/translate/document)
	mux.HandleFunc("/api/v1/translate/document", s.handleDocument)

	mux.HandleFunc("/api/v1/languages", s.handleLanguages)

	// Health check endpoint
	mux.HandleFunc("/health", s.handleHealth)

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// Start starts the HTTP server and blocks until it stops.
// It returns nil after Shutdown.
func (s *HTTPServer) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.WithFields(logrus.Fields{
		"port": s.port,
	}).Info("Starting HTTP server")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight translations.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// TranslateRequest is the body of POST /api/v1/translate.
type TranslateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

// TranslateResponse is returned by both translation endpoints.
type TranslateResponse struct {
	TranslatedText string            `json:"translated_text"`
	Chunks         int               `json:"chunks"`
	Partial        bool              `json:"partial"`
	Failures       []FailureResponse `json:"failures,omitempty"`
}

// FailureResponse describes a chunk that was replaced by an error marker.
type FailureResponse struct {
	Index      int    `json:"index"`
	StatusCode int    `json:"status_code,omitempty"`
	Message    string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *HTTPServer) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req TranslateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, s.maxUploadSize)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	source, target, err := s.resolveLanguages(req.SourceLang, req.TargetLang)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := s.pipeline.Text(r.Context(), req.Text, source, target)
	if err != nil {
		s.logger.WithError(err).Error("Text translation failed")
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error processing the text: %v", err))
		return
	}

	s.writeDocument(w, doc)
}

func (s *HTTPServer) handleDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize)
	if err := r.ParseMultipartForm(s.maxUploadSize); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid upload: %v", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	source, target, err := s.resolveLanguages(r.FormValue("source_lang"), r.FormValue("target_lang"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Dispatch on the declared MIME type; fall back to the file extension for
	// clients that send application/octet-stream.
	kind, err := extract.KindForContentType(header.Header.Get("Content-Type"))
	if err != nil {
		kind, err = extract.KindForFilename(header.Filename)
	}
	if err != nil {
		s.writeError(w, http.StatusUnsupportedMediaType, "unsupported file type: upload text/plain or application/pdf")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"filename": header.Filename,
		"kind":     kind,
		"size":     header.Size,
	}).Debug("Received document upload")

	var doc *dispatch.Document
	switch kind {
	case extract.KindPDF:
		doc, err = s.pipeline.PDF(r.Context(), file, source, target)
	default:
		doc, err = s.pipeline.Document(r.Context(), file, source, target)
	}
	if err != nil {
		label := "document"
		if kind == extract.KindPDF {
			label = "PDF"
		}
		status := http.StatusInternalServerError
		var extractErr *extract.ExtractionError
		if errors.As(err, &extractErr) {
			status = http.StatusUnprocessableEntity
		}
		s.writeError(w, status, fmt.Sprintf("Error processing the %s: %v", label, err))
		return
	}

	s.writeDocument(w, doc)
}

// LanguageEntry is one selectable language.
type LanguageEntry struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// LanguagesResponse is returned by GET /api/v1/languages.
type LanguagesResponse struct {
	AutoDetect string          `json:"auto_detect"`
	Languages  []LanguageEntry `json:"languages"`
	Backend    []string        `json:"backend_languages,omitempty"`
}

func (s *HTTPServer) handleLanguages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := LanguagesResponse{AutoDetect: translate.AutoDetect}
	for _, name := range s.catalog.Names() {
		resp.Languages = append(resp.Languages, LanguageEntry{Name: name, Code: s.catalog[name]})
	}

	if s.backend != nil {
		codes, err := s.backend.SupportedLanguages(r.Context())
		if err != nil {
			s.logger.WithError(err).Warn("Failed to fetch backend languages")
		} else {
			resp.Backend = codes
		}
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// handleHealth provides a health check endpoint.
func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// resolveLanguages maps display names or codes onto backend codes.
// The source may be empty or the auto-detect choice; the target is required.
func (s *HTTPServer) resolveLanguages(sourceLang, targetLang string) (string, string, error) {
	source, ok := s.catalog.Resolve(sourceLang)
	if !ok {
		return "", "", fmt.Errorf("unsupported source language: %q", sourceLang)
	}
	if targetLang == "" {
		return "", "", fmt.Errorf("target_lang is required")
	}
	target, ok := s.catalog.Resolve(targetLang)
	if !ok || target == "" {
		return "", "", fmt.Errorf("unsupported target language: %q", targetLang)
	}
	return source, target, nil
}

func (s *HTTPServer) writeDocument(w http.ResponseWriter, doc *dispatch.Document) {
	resp := TranslateResponse{
		TranslatedText: doc.Text,
		Chunks:         doc.Chunks,
		Partial:        doc.Partial(),
	}
	for _, f := range doc.Failures {
		resp.Failures = append(resp.Failures, FailureResponse{
			Index:      f.Index,
			StatusCode: f.Failure.StatusCode,
			Message:    f.Failure.Message,
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}
