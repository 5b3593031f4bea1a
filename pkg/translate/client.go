package translate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultAttempts is the number of tries per chunk before giving up.
	DefaultAttempts = 3
	// DefaultRetryDelay is the fixed pause before each re-attempt.
	DefaultRetryDelay = 2 * time.Second
)

// RetryPolicy controls how often a chunk is re-sent to the backend.
// Every failure is retried the same way: a fixed Delay before each attempt
// after the first, no backoff and no jitter.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// DefaultRetryPolicy returns 3 attempts spaced 2 seconds apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: DefaultAttempts,
		Delay:    DefaultRetryDelay,
	}
}

// ChunkRequest pairs one chunk of text with its language hints.
type ChunkRequest struct {
	Index      int
	Text       string
	SourceLang string // empty means auto-detect
	TargetLang string
}

// Failure describes why a chunk could not be translated.
// StatusCode is 0 when the failure carried no backend status (transport errors).
type Failure struct {
	StatusCode int
	Message    string
}

// Marker is the text placed in the document where the chunk's translation
// would have been.
func (f *Failure) Marker() string {
	if f.StatusCode == 0 {
		return fmt.Sprintf("Error: %s", f.Message)
	}
	return fmt.Sprintf("Error: %d, %s", f.StatusCode, f.Message)
}

func (f *Failure) Error() string {
	return f.Marker()
}

// ChunkResult is the outcome of translating one chunk.
// Exactly one of Text (on success) or Failure is meaningful.
type ChunkResult struct {
	Index    int
	Text     string
	Attempts int
	Failure  *Failure
}

// OK reports whether the chunk was translated.
func (r ChunkResult) OK() bool {
	return r.Failure == nil
}

// failureFrom converts a backend error into a Failure.
func failureFrom(err error) *Failure {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return &Failure{StatusCode: statusErr.StatusCode, Message: statusErr.Message}
	}
	return &Failure{Message: err.Error()}
}

// Client sends chunks to a Translator, retrying failed attempts.
// It never returns an error: a chunk that cannot be translated comes back as
// a ChunkResult carrying the last failure.
type Client struct {
	translator Translator
	policy     RetryPolicy
	engine     string
	metrics    *MetricsCollector
	logger     *logrus.Logger
}

// NewClient wraps translator with the given retry policy.
// Non-positive attempts fall back to DefaultAttempts; a negative delay to zero.
func NewClient(translator Translator, policy RetryPolicy, engine string, logger *logrus.Logger) *Client {
	if policy.Attempts <= 0 {
		policy.Attempts = DefaultAttempts
	}
	if policy.Delay < 0 {
		policy.Delay = 0
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &Client{
		translator: translator,
		policy:     policy,
		engine:     engine,
		metrics:    NewMetricsCollector(engine),
		logger:     logger,
	}
}

// Policy returns the client's effective retry policy.
func (c *Client) Policy() RetryPolicy {
	return c.policy
}

// TranslateChunk translates one chunk with up to Policy().Attempts attempts.
// The delay between attempts is spent on the calling goroutine; concurrent
// chunks retry independently of each other.
func (c *Client) TranslateChunk(ctx context.Context, req ChunkRequest) ChunkResult {
	result := ChunkResult{Index: req.Index}
	var lastErr error

	for attempt := 1; attempt <= c.policy.Attempts; attempt++ {
		if attempt > 1 {
			c.metrics.RecordRetry()
			if err := sleep(ctx, c.policy.Delay); err != nil {
				lastErr = err
				break
			}
		}

		result.Attempts = attempt
		startTime := time.Now()
		translated, err := c.translator.Translate(ctx, req.Text, req.SourceLang, req.TargetLang)
		duration := time.Since(startTime)
		c.metrics.RecordAttempt(duration, err == nil, len(req.Text), len(translated))

		if err == nil {
			result.Text = translated
			c.logger.WithFields(logrus.Fields{
				"chunk":       req.Index,
				"attempt":     attempt,
				"engine":      c.engine,
				"duration_ms": duration.Milliseconds(),
			}).Debug("Chunk translated")
			return result
		}

		lastErr = err
		c.logger.WithError(err).WithFields(logrus.Fields{
			"chunk":        req.Index,
			"attempt":      attempt,
			"max_attempts": c.policy.Attempts,
			"engine":       c.engine,
		}).Warn("Chunk translation attempt failed")
	}

	c.metrics.RecordChunkFailure()
	result.Failure = failureFrom(lastErr)

	c.logger.WithFields(logrus.Fields{
		"chunk":    req.Index,
		"attempts": result.Attempts,
		"engine":   c.engine,
		"failure":  result.Failure.Marker(),
	}).Error("Chunk translation failed after all attempts")

	return result
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
