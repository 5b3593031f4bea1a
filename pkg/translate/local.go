package translate

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultLocalModel is the sequence-to-sequence model loaded by the worker.
	DefaultLocalModel = "facebook/nllb-200-distilled-600M"
	// DefaultLocalScript is where the model worker script is installed.
	DefaultLocalScript = "/app/scripts/seq2seq_worker.py"
)

// nllbCodes maps ISO 639-1 codes to the NLLB-200 language tokens the model
// is forced to start generation with.
var nllbCodes = map[string]string{
	"en": "eng_Latn",
	"de": "deu_Latn",
	"fr": "fra_Latn",
	"es": "spa_Latn",
	"it": "ita_Latn",
	"pt": "por_Latn",
	"nl": "nld_Latn",
	"pl": "pol_Latn",
	"ru": "rus_Cyrl",
	"zh": "zho_Hans",
	"ja": "jpn_Jpan",
	"ko": "kor_Hang",
	"ar": "arb_Arab",
	"hi": "hin_Deva",
	"tr": "tur_Latn",
}

// ModelLanguageToken returns the NLLB token for an ISO 639-1 code.
// Codes that already look like model tokens pass through unchanged.
func ModelLanguageToken(code string) string {
	if token, ok := nllbCodes[NormalizeCode(code)]; ok {
		return token
	}
	return code
}

// LocalModelTranslator runs a locally loaded translation model in a worker
// subprocess and talks to it with one JSON object per line over stdin/stdout.
//
// Worker protocol, one line each way:
//
//	-> {"text": "...", "src_lang": "eng_Latn", "tgt_lang": "deu_Latn", "max_length": 500}
//	<- {"success": true, "translated_text": "..."}
//	<- {"success": false, "error": "..."}
//
// tgt_lang is forced as the first generated token. Requests are serialized;
// the model is a single in-memory instance.
type LocalModelTranslator struct {
	pythonPath      string
	scriptPath      string
	model           string
	maxOutputLength int

	mu      sync.Mutex
	process *exec.Cmd
	stdin   io.WriteCloser
	stdout  *bufio.Reader
	logger  *logrus.Logger
}

// NewLocalModelTranslator creates a translator backed by a local model worker.
// The worker is started lazily on the first request.
func NewLocalModelTranslator(scriptPath, model string, maxOutputLength int, logger *logrus.Logger) *LocalModelTranslator {
	if scriptPath == "" {
		scriptPath = DefaultLocalScript
	}
	if model == "" {
		model = DefaultLocalModel
	}
	if maxOutputLength <= 0 {
		maxOutputLength = DefaultMaxOutputLength
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &LocalModelTranslator{
		pythonPath:      "python3",
		scriptPath:      scriptPath,
		model:           model,
		maxOutputLength: maxOutputLength,
		logger:          logger,
	}
}

// localRequest is one line sent to the worker.
type localRequest struct {
	Text      string `json:"text"`
	SrcLang   string `json:"src_lang,omitempty"`
	TgtLang   string `json:"tgt_lang"`
	MaxLength int    `json:"max_length"`
}

// localResponse is one line read back from the worker.
type localResponse struct {
	Success        bool   `json:"success"`
	TranslatedText string `json:"translated_text,omitempty"`
	Error          string `json:"error,omitempty"`
}

// ensureProcess starts the worker subprocess if it is not running.
// Callers must hold t.mu.
func (t *LocalModelTranslator) ensureProcess() error {
	if t.process != nil && t.process.ProcessState == nil {
		return nil
	}

	cmd := exec.Command(t.pythonPath, t.scriptPath, "--model", t.model)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start model worker: %w", err)
	}

	t.process = cmd
	t.stdin = stdin
	t.stdout = bufio.NewReader(stdout)

	t.logger.WithFields(logrus.Fields{
		"model":  t.model,
		"script": t.scriptPath,
		"pid":    cmd.Process.Pid,
	}).Info("Local model worker started")

	return nil
}

// stopProcess kills the worker so the next request starts a fresh one.
// Callers must hold t.mu.
func (t *LocalModelTranslator) stopProcess() {
	if t.process == nil {
		return
	}
	if t.stdin != nil {
		t.stdin.Close()
	}
	if t.process.Process != nil {
		t.process.Process.Kill()
	}
	t.process.Wait()
	t.process = nil
	t.stdin = nil
	t.stdout = nil
}

// Translate translates text with the local model.
func (t *LocalModelTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ensureProcess(); err != nil {
		return "", err
	}

	req := localRequest{
		Text:      text,
		TgtLang:   ModelLanguageToken(targetLang),
		MaxLength: t.maxOutputLength,
	}
	if !IsAutoDetect(sourceLang) {
		req.SrcLang = ModelLanguageToken(sourceLang)
	}

	resp, err := exchange(t.stdin, t.stdout, req)
	if err != nil {
		t.logger.WithError(err).Warn("Local model worker I/O failed, restarting on next request")
		t.stopProcess()
		return "", err
	}

	if !resp.Success {
		errorMsg := resp.Error
		if errorMsg == "" {
			errorMsg = "unknown error"
		}
		return "", fmt.Errorf("translation failed: %s", errorMsg)
	}

	return resp.TranslatedText, nil
}

// exchange writes one request line and reads one response line.
func exchange(w io.Writer, r *bufio.Reader, req localRequest) (localResponse, error) {
	var resp localResponse

	line, err := json.Marshal(req)
	if err != nil {
		return resp, fmt.Errorf("failed to marshal request: %w", err)
	}
	if _, err := w.Write(append(line, '\n')); err != nil {
		return resp, fmt.Errorf("failed to write to worker: %w", err)
	}

	reply, err := r.ReadBytes('\n')
	if err != nil && len(reply) == 0 {
		if err == io.EOF {
			return resp, fmt.Errorf("worker connection closed")
		}
		return resp, fmt.Errorf("failed to read response: %w", err)
	}

	if err := json.Unmarshal(reply, &resp); err != nil {
		return resp, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return resp, nil
}

// CheckHealth verifies the local model is loaded by translating a test string.
func (t *LocalModelTranslator) CheckHealth(ctx context.Context) error {
	_, err := t.Translate(ctx, "test", "en", "de")
	return err
}

// SupportedLanguages returns the languages with a known model token.
func (t *LocalModelTranslator) SupportedLanguages(ctx context.Context) ([]string, error) {
	return DefaultCatalog.Codes(), nil
}

// Close stops the worker subprocess.
func (t *LocalModelTranslator) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopProcess()
	return nil
}
