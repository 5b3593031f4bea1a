package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dasmlab/tranzlate/pkg/dispatch"
	"github.com/dasmlab/tranzlate/pkg/extract"
	"github.com/dasmlab/tranzlate/pkg/translate"
)

// warmupSource identifies scheduled keep-warm events.
const warmupSource = "warmup"

// Request is the invocation payload. Either Text or Document is set.
// Document is base64 in JSON; Kind is "text" (default) or "pdf".
type Request struct {
	Text       string `json:"text,omitempty"`
	Document   []byte `json:"document,omitempty"`
	Kind       string `json:"kind,omitempty"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

// Response is the invocation result. Error replaces the translation when the
// request could not be processed.
type Response struct {
	TranslatedText string `json:"translated_text,omitempty"`
	Chunks         int    `json:"chunks"`
	Partial        bool   `json:"partial"`
	FailedChunks   []int  `json:"failed_chunks,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Translator is the part of *pipeline.Pipeline the handler calls.
type Translator interface {
	Text(ctx context.Context, text, sourceLang, targetLang string) (*dispatch.Document, error)
	Document(ctx context.Context, r io.Reader, sourceLang, targetLang string) (*dispatch.Document, error)
	PDF(ctx context.Context, r io.Reader, sourceLang, targetLang string) (*dispatch.Document, error)
}

func isWarmupEvent(event json.RawMessage) bool {
	var probe struct {
		Source string `json:"source"`
	}
	if err := json.Unmarshal(event, &probe); err != nil {
		return false
	}
	return probe.Source == warmupSource
}

// Handle translates one request. It never fails the invocation; problems are
// reported in Response.Error.
func Handle(ctx context.Context, p Translator, req Request) *Response {
	source, ok := translate.DefaultCatalog.Resolve(req.SourceLang)
	if !ok {
		return &Response{Error: fmt.Sprintf("unsupported source language: %q", req.SourceLang)}
	}
	target, ok := translate.DefaultCatalog.Resolve(req.TargetLang)
	if !ok || target == "" {
		return &Response{Error: fmt.Sprintf("unsupported target language: %q", req.TargetLang)}
	}

	var (
		doc *dispatch.Document
		err error
	)
	switch {
	case req.Document == nil:
		doc, err = p.Text(ctx, req.Text, source, target)
		if err != nil {
			return &Response{Error: fmt.Sprintf("Error processing the text: %v", err)}
		}
	case extract.Kind(req.Kind) == extract.KindPDF:
		doc, err = p.PDF(ctx, bytes.NewReader(req.Document), source, target)
		if err != nil {
			return &Response{Error: fmt.Sprintf("Error processing the PDF: %v", err)}
		}
	case req.Kind == "" || extract.Kind(req.Kind) == extract.KindPlainText:
		doc, err = p.Document(ctx, bytes.NewReader(req.Document), source, target)
		if err != nil {
			return &Response{Error: fmt.Sprintf("Error processing the document: %v", err)}
		}
	default:
		return &Response{Error: fmt.Sprintf("unsupported document kind: %q", req.Kind)}
	}

	resp := &Response{
		TranslatedText: doc.Text,
		Chunks:         doc.Chunks,
		Partial:        doc.Partial(),
	}
	for _, f := range doc.Failures {
		resp.FailedChunks = append(resp.FailedChunks, f.Index)
	}
	return resp
}
