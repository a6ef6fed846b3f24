package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/joseph-ayodele/essay-feedback/internal/common"
	"github.com/joseph-ayodele/essay-feedback/internal/llm"
)

const quotaCode = "insufficient_quota"

type inputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesRequest struct {
	Model           string         `json:"model"`
	Input           []inputMessage `json:"input"`
	MaxOutputTokens int            `json:"max_output_tokens,omitempty"`
}

type responsesReply struct {
	OutputText string `json:"output_text"`
	Output     []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Evaluate implements llm.FeedbackEvaluator over the Responses API. The reply
// text is returned untouched; no retries are attempted.
func (c *Client) Evaluate(ctx context.Context, req llm.EvaluateRequest) (string, error) {
	ctx, rid := common.EnsureRequestID(ctx)
	start := time.Now()

	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}
	maxOut := req.MaxOutputTokens
	if maxOut <= 0 {
		maxOut = c.cfg.MaxOutputTokens
	}

	c.logger.Info("llm.evaluate.start",
		"req_id", rid,
		"model", model,
		"max_output_tokens", maxOut,
		"prompt_chars", len([]rune(req.User)),
	)

	body := responsesRequest{
		Model: model,
		Input: []inputMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		MaxOutputTokens: maxOut,
	}
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/responses"

	raw, status, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		apiErr := classify(status, raw, err)
		c.logger.Error("llm.evaluate.http_error",
			"req_id", rid,
			"status", status,
			"code", apiErr.Code,
			"error", apiErr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", apiErr
	}

	var rr responsesReply
	if err := json.Unmarshal(raw, &rr); err != nil {
		c.logger.Error("llm.evaluate.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", &llm.APIError{Kind: llm.ErrTransport, StatusCode: status, Message: "decode response", Cause: err}
	}
	text := rr.text()

	c.logger.Info("llm.evaluate.ok",
		"req_id", rid,
		"reply_chars", len([]rune(text)),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

// text prefers the aggregated output_text and otherwise concatenates the
// output_text parts of every message item.
func (r responsesReply) text() string {
	if r.OutputText != "" {
		return r.OutputText
	}
	var b strings.Builder
	for _, item := range r.Output {
		if item.Type != "" && item.Type != "message" {
			continue
		}
		for _, part := range item.Content {
			if part.Type == "output_text" {
				b.WriteString(part.Text)
			}
		}
	}
	return b.String()
}

func classify(status int, raw []byte, err error) *llm.APIError {
	var se *llm.StatusError
	if !errors.As(err, &se) {
		return &llm.APIError{Kind: llm.ErrTransport, StatusCode: status, Cause: err}
	}

	var env errorEnvelope
	_ = json.Unmarshal(raw, &env)
	out := &llm.APIError{
		StatusCode: se.StatusCode,
		Code:       env.Error.Code,
		Message:    env.Error.Message,
	}
	if out.Message == "" {
		out.Message = fmt.Sprintf("%.200s", strings.TrimSpace(string(raw)))
	}

	switch {
	case se.StatusCode == http.StatusUnauthorized, se.StatusCode == http.StatusForbidden:
		out.Kind = llm.ErrAuthentication
	case se.StatusCode == http.StatusTooManyRequests && (env.Error.Code == quotaCode || env.Error.Type == quotaCode):
		out.Kind = llm.ErrQuotaExhausted
	case se.StatusCode == http.StatusTooManyRequests:
		out.Kind = llm.ErrRateLimited
	default:
		out.Kind = llm.ErrTransport
	}
	return out
}
