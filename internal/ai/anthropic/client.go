package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/artuino0/personal-finance-app-sub000/internal/ai"
)

const (
	// APIBaseURL is the Messages API endpoint.
	APIBaseURL = "https://api.anthropic.com/v1/messages"

	// APIVersion is sent as the anthropic-version header.
	APIVersion = "2023-06-01"

	// statusOverloaded is Anthropic's non-standard "overloaded" status.
	statusOverloaded = 529

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 1 << 20

	// maxRetryAfter caps how long a server-provided Retry-After can stall us.
	maxRetryAfter = 30 * time.Second
)

// messagesClient posts to the Messages API with retry on transient failures.
type messagesClient struct {
	url        string
	apiKey     string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// retryAfterError is a transient error that carries the server's hint of
// when to try again.
type retryAfterError struct {
	err   error
	after time.Duration
}

func (e *retryAfterError) Error() string { return e.err.Error() }
func (e *retryAfterError) Unwrap() error { return e.err }

// send marshals req once and posts it until it succeeds, fails permanently
// or runs out of attempts.
func (c *messagesClient) send(ctx context.Context, req messagesRequest) (*messagesResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		resp, err := c.post(ctx, body)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !ai.IsRetryable(err) || attempt == c.maxRetries {
			break
		}

		delay := c.backoff(attempt, err)
		c.logger.Info("retrying AI request", "attempt", attempt, "delay", delay, "error", err)

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// backoff doubles the base delay per attempt unless the server said otherwise.
func (c *messagesClient) backoff(attempt int, err error) time.Duration {
	var ra *retryAfterError
	if errors.As(err, &ra) && ra.after > 0 {
		return min(ra.after, maxRetryAfter)
	}
	return c.baseDelay << (attempt - 1)
}

func (c *messagesClient) post(ctx context.Context, body []byte) (*messagesResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", APIVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, ai.EAITimeout
		}
		return nil, ai.EAIUnavailable
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp, raw)
	}

	var out messagesResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &out, nil
}

// statusError maps a non-200 response onto the ai error set.
func statusError(resp *http.Response, raw []byte) error {
	var apiErr errorResponse
	_ = json.Unmarshal(raw, &apiErr)
	msg := apiErr.Error.Message

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ai.EAIUnauthorized
	case http.StatusTooManyRequests:
		return &retryAfterError{err: ai.EAIRateLimit, after: parseRetryAfter(resp.Header.Get("Retry-After"))}
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return ai.EAITimeout
	case http.StatusBadRequest:
		if apiErr.Error.Type == "invalid_request_error" {
			return fmt.Errorf("%w: %s", ai.EAIInvalidInput, msg)
		}
		return fmt.Errorf("bad request: %s", msg)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, statusOverloaded:
		return &retryAfterError{err: ai.EAIUnavailable, after: parseRetryAfter(resp.Header.Get("Retry-After"))}
	default:
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, msg)
	}
}

// parseRetryAfter reads a delay-seconds Retry-After value. HTTP dates are
// ignored and fall back to exponential backoff.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// Messages API wire types.

type messagesRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type messagesResponse struct {
	ID         string         `json:"id"`
	Model      string         `json:"model"`
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      usage          `json:"usage"`
}

// text returns the first text block of the response.
func (r *messagesResponse) text() string {
	for _, block := range r.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text
		}
	}
	return ""
}

type usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
