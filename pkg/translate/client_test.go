package translate

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// stubTranslator replays a fixed sequence of errors, then succeeds.
type stubTranslator struct {
	mu     sync.Mutex
	calls  int
	errs   []error
	always error
}

func (s *stubTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.always != nil {
		return "", s.always
	}
	if s.calls <= len(s.errs) {
		return "", s.errs[s.calls-1]
	}
	return strings.ToUpper(text), nil
}

func (s *stubTranslator) CheckHealth(ctx context.Context) error { return nil }

func (s *stubTranslator) SupportedLanguages(ctx context.Context) ([]string, error) {
	return DefaultCatalog.Codes(), nil
}

func (s *stubTranslator) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestTranslateChunk_Success(t *testing.T) {
	stub := &stubTranslator{}
	client := NewClient(stub, RetryPolicy{Attempts: 3, Delay: time.Millisecond}, "stub", quietLogger())

	res := client.TranslateChunk(context.Background(), ChunkRequest{Index: 4, Text: "hello world", TargetLang: "de"})
	if !res.OK() {
		t.Fatalf("unexpected failure: %v", res.Failure)
	}
	if res.Text != "HELLO WORLD" {
		t.Errorf("Text = %q, want %q", res.Text, "HELLO WORLD")
	}
	if res.Index != 4 {
		t.Errorf("Index = %d, want 4", res.Index)
	}
	if res.Attempts != 1 || stub.Calls() != 1 {
		t.Errorf("attempts = %d, calls = %d, want 1/1", res.Attempts, stub.Calls())
	}
}

func TestTranslateChunk_RecoversAfterFailures(t *testing.T) {
	stub := &stubTranslator{errs: []error{
		&StatusError{StatusCode: 503, Message: "loading"},
		errors.New("connection reset"),
	}}
	client := NewClient(stub, RetryPolicy{Attempts: 3, Delay: time.Millisecond}, "stub", quietLogger())

	res := client.TranslateChunk(context.Background(), ChunkRequest{Text: "abc"})
	if !res.OK() {
		t.Fatalf("unexpected failure: %v", res.Failure)
	}
	if res.Text != "ABC" {
		t.Errorf("Text = %q, want %q", res.Text, "ABC")
	}
	if res.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", res.Attempts)
	}
}

func TestTranslateChunk_BoundedAttempts(t *testing.T) {
	delay := 20 * time.Millisecond
	stub := &stubTranslator{always: &StatusError{StatusCode: 503, Message: "Service Unavailable"}}
	client := NewClient(stub, RetryPolicy{Attempts: 3, Delay: delay}, "stub", quietLogger())

	start := time.Now()
	res := client.TranslateChunk(context.Background(), ChunkRequest{Index: 1, Text: "abc"})
	elapsed := time.Since(start)

	if res.OK() {
		t.Fatal("expected failure")
	}
	if stub.Calls() != 3 {
		t.Errorf("calls = %d, want 3", stub.Calls())
	}
	if res.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", res.Attempts)
	}
	if elapsed < 2*delay {
		t.Errorf("elapsed %v, want at least %v", elapsed, 2*delay)
	}
	if res.Failure.StatusCode != 503 {
		t.Errorf("StatusCode = %d, want 503", res.Failure.StatusCode)
	}
	if got, want := res.Failure.Marker(), "Error: 503, Service Unavailable"; got != want {
		t.Errorf("Marker() = %q, want %q", got, want)
	}
}

func TestTranslateChunk_TransportFailure(t *testing.T) {
	stub := &stubTranslator{always: errors.New("dial tcp: connection refused")}
	client := NewClient(stub, RetryPolicy{Attempts: 2}, "stub", quietLogger())

	res := client.TranslateChunk(context.Background(), ChunkRequest{Text: "abc"})
	if res.OK() {
		t.Fatal("expected failure")
	}
	if res.Failure.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0", res.Failure.StatusCode)
	}
	if got, want := res.Failure.Marker(), "Error: dial tcp: connection refused"; got != want {
		t.Errorf("Marker() = %q, want %q", got, want)
	}
}

func TestTranslateChunk_ContextCancelStopsRetries(t *testing.T) {
	stub := &stubTranslator{always: errors.New("boom")}
	client := NewClient(stub, RetryPolicy{Attempts: 3, Delay: time.Hour}, "stub", quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	done := make(chan ChunkResult, 1)
	go func() { done <- client.TranslateChunk(ctx, ChunkRequest{Text: "abc"}) }()

	select {
	case res := <-done:
		if res.OK() {
			t.Fatal("expected failure")
		}
		if stub.Calls() != 1 {
			t.Errorf("calls = %d, want 1", stub.Calls())
		}
		if !strings.Contains(res.Failure.Message, "context canceled") {
			t.Errorf("Message = %q, want context canceled", res.Failure.Message)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("TranslateChunk did not return after cancel")
	}
}

func TestNewClient_PolicyDefaults(t *testing.T) {
	client := NewClient(&stubTranslator{}, RetryPolicy{Attempts: 0, Delay: -time.Second}, "stub", nil)
	policy := client.Policy()
	if policy.Attempts != DefaultAttempts {
		t.Errorf("Attempts = %d, want %d", policy.Attempts, DefaultAttempts)
	}
	if policy.Delay != 0 {
		t.Errorf("Delay = %v, want 0", policy.Delay)
	}

	def := DefaultRetryPolicy()
	if def.Attempts != 3 || def.Delay != 2*time.Second {
		t.Errorf("DefaultRetryPolicy() = %+v", def)
	}
}
