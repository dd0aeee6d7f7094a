// Package llm is a client of an OpenAI compatible chat completions API.
//
// Calls are retried on 429 and 5xx responses and guarded by a circuit
// breaker, so a failing provider is skipped quickly and callers can
// answer from their own fallback.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/niksmo/shop-assistant/internal/core/domain"
	"github.com/niksmo/shop-assistant/internal/core/port"
	"github.com/niksmo/shop-assistant/internal/metrics"
	"github.com/niksmo/shop-assistant/pkg/retry"
	gobreaker "github.com/sony/gobreaker/v2"
)

const (
	DefaultModel       = "gpt-4o"
	DefaultTimeout     = 20 * time.Second
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 400

	defaultMaxAttempts = 3
	defaultRetryDelay  = 200 * time.Millisecond
	maxErrorBody       = 512
	breakerName        = "llm"
)

var _ port.Generator = (*Client)(nil)

type Config struct {
	URL         string
	APIKey      string
	Model       string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int

	MaxAttempts int
	RetryDelay  time.Duration

	// BreakerTimeout is how long the breaker stays open.
	BreakerTimeout time.Duration
}

func (c *Config) normalize() {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = defaultRetryDelay
	}
	if c.BreakerTimeout <= 0 {
		c.BreakerTimeout = time.Minute
	}
}

type Client struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[string]
}

func New(cfg Config) *Client {
	cfg.normalize()
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return &Client{
		cfg:     cfg,
		http:    &http.Client{},
		breaker: newBreaker(cfg.BreakerTimeout),
	}
}

func newBreaker(openTimeout time.Duration) *gobreaker.CircuitBreaker[string] {
	return gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn(
				"circuit breaker state changed",
				"name", name, "from", from.String(), "to", to.String(),
			)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Generate returns the assistant message for the system instruction
// and the user prompt. Every failure matches [domain.ErrGenerationFailed].
func (c *Client) Generate(
	ctx context.Context, instruction, prompt string,
) (string, error) {
	const op = "Client.Generate"
	log := slog.With("op", op)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(completionRequest{
		Model: c.cfg.Model,
		Messages: []message{
			{Role: "system", Content: instruction},
			{Role: "user", Content: prompt},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, domain.ErrGenerationFailed, err)
	}

	retryCfg := retry.RetryConfig{
		MaxAttempts: c.cfg.MaxAttempts,
		Backoff:     retry.ExponentialBackoff(c.cfg.RetryDelay),
		ShouldRetry: shouldRetry,
	}

	text, err := c.breaker.Execute(func() (string, error) {
		return retry.DoWithResult(ctx, retryCfg, func() (string, error) {
			return c.complete(ctx, body)
		})
	})
	if err != nil {
		log.Error("failed to generate reply", "err", err)
		return "", fmt.Errorf("%s: %w: %w", op, domain.ErrGenerationFailed, err)
	}
	return text, nil
}

func (c *Client) complete(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body),
	)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return "", &StatusError{Code: res.StatusCode, Body: string(msg)}
	}

	var out completionResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", errPermanent{err})
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", errPermanent{errors.New("empty completion")}
	}
	return out.Choices[0].Message.Content, nil
}

type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

type errPermanent struct{ error }

func (e errPermanent) Unwrap() error { return e.error }

func shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	var pe errPermanent
	return !errors.As(err, &pe)
}

type (
	message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	completionRequest struct {
		Model       string    `json:"model"`
		Messages    []message `json:"messages"`
		Temperature float64   `json:"temperature"`
		MaxTokens   int       `json:"max_tokens"`
	}

	completionResponse struct {
		Choices []struct {
			Message message `json:"message"`
		} `json:"choices"`
	}
)
