package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// maxErrorBody bounds how much of a failed response body is kept in errors.
const maxErrorBody = 500

// jsonClient is the request/response plumbing shared by the HTTP backends.
type jsonClient struct {
	httpClient *http.Client
	logger     *logrus.Logger
	headers    map[string]string
}

func newJSONClient(timeout time.Duration, logger *logrus.Logger) jsonClient {
	return jsonClient{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		headers:    map[string]string{},
	}
}

// post sends payload as JSON to url and decodes a 200 response into out.
// Any other status yields a *StatusError carrying the (truncated) body.
func (c jsonClient) post(ctx context.Context, url string, payload, out any) error {
	// Encode request body
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		c.logger.WithError(err).Error("Failed to encode translation request")
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, buf)
	if err != nil {
		c.logger.WithError(err).Error("Failed to create translation request")
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	return c.do(req, out)
}

// get issues a GET request and decodes a 200 response into out (if non-nil).
func (c jsonClient) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	return c.do(req, out)
}

func (c jsonClient) do(req *http.Request, out any) error {
	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"url": req.URL.String(),
		}).Debug("Backend request failed")
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.WithFields(logrus.Fields{
		"status_code": resp.StatusCode,
		"duration_ms": time.Since(startTime).Milliseconds(),
	}).Debug("Backend request completed")

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return &StatusError{
			StatusCode: resp.StatusCode,
			Message:    truncate(string(bytes.TrimSpace(bodyBytes)), maxErrorBody),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.WithError(err).Error("Failed to decode backend response")
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
