// Package dispatch fans chunk translations out over a bounded pool of workers
// and reassembles the results in source order.
package dispatch

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/dasmlab/tranzlate/pkg/segment"
	"github.com/dasmlab/tranzlate/pkg/translate"
)

// DefaultWorkers is the number of chunks translated concurrently.
const DefaultWorkers = 5

// ChunkTranslator translates a single chunk, folding failures into the result.
// *translate.Client satisfies it.
type ChunkTranslator interface {
	TranslateChunk(ctx context.Context, req translate.ChunkRequest) translate.ChunkResult
}

// ChunkFailure identifies a chunk that degraded to an inline marker.
type ChunkFailure struct {
	Index   int
	Failure translate.Failure
}

// Document is the reassembled translation of one pipeline call.
type Document struct {
	Text     string
	Chunks   int
	Failures []ChunkFailure
}

// Partial reports whether any chunk was replaced by an error marker.
func (d *Document) Partial() bool {
	return len(d.Failures) > 0
}

// Dispatcher translates chunks with at most Workers requests in flight.
type Dispatcher struct {
	client  ChunkTranslator
	workers int
	logger  *logrus.Logger
}

// New creates a dispatcher. Non-positive workers fall back to DefaultWorkers.
func New(client ChunkTranslator, workers int, logger *logrus.Logger) *Dispatcher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Dispatcher{
		client:  client,
		workers: workers,
		logger:  logger,
	}
}

// Workers returns the pool width.
func (d *Dispatcher) Workers() int {
	return d.workers
}

// Dispatch translates every chunk and blocks until all of them have a result.
// Results are assembled by chunk index regardless of completion order.
func (d *Dispatcher) Dispatch(ctx context.Context, chunks []segment.Chunk, sourceLang, targetLang string) *Document {
	if len(chunks) == 0 {
		return &Document{}
	}

	startTime := time.Now()
	results := make([]translate.ChunkResult, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	for i, chunk := range chunks {
		req := translate.ChunkRequest{
			Index:      chunk.Index,
			Text:       chunk.Text(),
			SourceLang: sourceLang,
			TargetLang: targetLang,
		}
		g.Go(func() error {
			translate.ChunkStarted()
			defer translate.ChunkFinished()

			// Each slot is written by exactly one worker.
			results[i] = d.client.TranslateChunk(gctx, req)
			return nil
		})
	}
	g.Wait()

	doc := Assemble(results)

	outcome := translate.OutcomeComplete
	if doc.Partial() {
		outcome = translate.OutcomePartial
	}
	duration := time.Since(startTime)
	translate.RecordDispatch(duration, outcome)

	d.logger.WithFields(logrus.Fields{
		"chunks":      doc.Chunks,
		"failures":    len(doc.Failures),
		"workers":     d.workers,
		"duration_ms": duration.Milliseconds(),
	}).Info("Dispatch completed")

	return doc
}

// Assemble orders results by chunk index and joins them with single spaces.
// A failed chunk contributes its marker in place of a translation.
func Assemble(results []translate.ChunkResult) *Document {
	ordered := make([]translate.ChunkResult, len(results))
	copy(ordered, results)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Index < ordered[j].Index
	})

	doc := &Document{Chunks: len(ordered)}
	parts := make([]string, len(ordered))
	for i, res := range ordered {
		if res.Failure != nil {
			parts[i] = res.Failure.Marker()
			doc.Failures = append(doc.Failures, ChunkFailure{Index: res.Index, Failure: *res.Failure})
			continue
		}
		parts[i] = res.Text
	}
	doc.Text = strings.Join(parts, " ")
	return doc
}
