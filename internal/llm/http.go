package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/joseph-ayodele/essay-feedback/internal/common"
)

const (
	maxResponseBytes   = 8 << 20
	defaultHTTPTimeout = 45 * time.Second
)

// SendJSON POSTs body as JSON to url and returns the response body and status.
// A non-2xx reply comes back with its body and a *StatusError.
func SendJSON(ctx context.Context, client *http.Client, url string, body any, headers map[string]string, logger *slog.Logger) ([]byte, int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	ctx, rid := common.EnsureRequestID(ctx)
	log := logger.With("req_id", rid)

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(common.RequestIDHeader, rid)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	log.Debug("llm.http.request", "url", url, "content_length", len(payload))
	resp, err := client.Do(req)
	if err != nil {
		log.Error("llm.http.send_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, 0, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Warn("llm.http.close_error", "error", cerr)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	log.Info("llm.http.response",
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return raw, resp.StatusCode, &StatusError{StatusCode: resp.StatusCode, Body: raw}
	}
	return raw, resp.StatusCode, nil
}
