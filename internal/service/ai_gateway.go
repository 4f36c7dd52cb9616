package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"neuralflux/internal/config"
	"neuralflux/internal/metrics"
)

var (
	ErrOracleDisabled = errors.New("oracle is not configured")
	ErrTimeout        = errors.New("oracle request timed out")
	ErrNetworkFailure = errors.New("oracle unreachable")
	ErrUpstream       = errors.New("oracle returned an error status")
	ErrEmptyResponse  = errors.New("oracle returned no content")
)

const maxResponseBytes = 1 << 20

// ChatMessage is one entry of a chat-completion conversation
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer is the oracle surface the scoring pipeline depends on
type Completer interface {
	Complete(ctx context.Context, messages []ChatMessage, temperature float64, maxTokens int) (string, error)
}

// NetworkError is returned when the oracle could not be reached at all
type NetworkError struct {
	// Refused is set when the host actively refused the connection, which
	// usually means a proxy or base URL misconfiguration.
	Refused bool
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Refused {
		return fmt.Sprintf("oracle connection refused: %v", e.Err)
	}
	return fmt.Sprintf("oracle unreachable: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetworkFailure }

// UpstreamError carries a non-2xx oracle response
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("oracle error: %d - %s", e.Status, e.Body)
}

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

// AIGateway performs single chat-completion calls against the oracle.
// It never retries; callers own retry policy.
type AIGateway struct {
	config  *config.AIConfig
	client  *http.Client
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewAIGateway creates a new oracle gateway
func NewAIGateway(cfg *config.AIConfig, logger *zap.Logger, m *metrics.Metrics) *AIGateway {
	return &AIGateway{
		config:  cfg,
		client:  &http.Client{},
		logger:  logger.Named("oracle"),
		metrics: m,
	}
}

// Enabled reports whether an API key is configured
func (g *AIGateway) Enabled() bool {
	return g.config.IsEnabled()
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// Complete sends messages to the oracle and returns the assistant content
func (g *AIGateway) Complete(ctx context.Context, messages []ChatMessage, temperature float64, maxTokens int) (string, error) {
	start := time.Now()
	content, err := g.complete(ctx, messages, temperature, maxTokens)
	outcome := outcomeOf(err)
	g.metrics.OracleCalls.WithLabelValues(outcome).Inc()
	g.metrics.OracleLatency.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	if err != nil {
		g.logger.Warn("completion failed", zap.String("outcome", outcome), zap.Error(err))
	}
	return content, err
}

func (g *AIGateway) complete(ctx context.Context, messages []ChatMessage, temperature float64, maxTokens int) (string, error) {
	if !g.config.IsEnabled() {
		return "", ErrOracleDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	jsonBody, err := json.Marshal(completionRequest{
		Model:       g.config.Model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.BaseURL, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to build completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", g.transportError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", g.transportError(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &UpstreamError{Status: resp.StatusCode, Body: truncate(strings.TrimSpace(string(body)), 512)}
	}

	content, finishReason := unwrapCompletion(body)
	g.logger.Debug("completion received",
		zap.Int("status", resp.StatusCode),
		zap.Int("chars", len(content)),
		zap.String("finish_reason", finishReason),
	)
	if content == "" {
		if finishReason != "" {
			return "", fmt.Errorf("%w (finish_reason: %s)", ErrEmptyResponse, finishReason)
		}
		return "", ErrEmptyResponse
	}
	if finishReason == "length" {
		g.logger.Warn("completion truncated by token budget", zap.Int("chars", len(content)))
	}
	return content, nil
}

func (g *AIGateway) transportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrTimeout, g.config.Timeout)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &NetworkError{Refused: errors.Is(err, syscall.ECONNREFUSED), Err: err}
}

var rawContentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"content"\s*:\s*"((?:[^"\\]|\\.)+)"`),
	regexp.MustCompile(`"text"\s*:\s*"((?:[^"\\]|\\.)+)"`),
}

// unwrapCompletion reads the assistant content out of a chat-completion
// body. It tolerates an array-wrapped payload and several content shapes,
// and falls back to scanning the raw body.
func unwrapCompletion(body []byte) (content, finishReason string) {
	var payload any
	if err := json.Unmarshal(body, &payload); err == nil {
		if arr, ok := payload.([]any); ok && len(arr) > 0 {
			payload = arr[0]
		}
		finishReason = lookupString(payload, "choices", 0, "finish_reason")
		for _, path := range [][]any{
			{"choices", 0, "message", "content"},
			{"choices", 0, "content"},
			{"choices", 0, "delta", "content"},
			{"message", "content"},
			{"content"},
		} {
			if c := lookupString(payload, path...); strings.TrimSpace(c) != "" {
				return c, finishReason
			}
		}
	}

	for _, p := range rawContentPatterns {
		if m := p.FindSubmatch(body); m != nil {
			if s, err := strconv.Unquote(`"` + string(m[1]) + `"`); err == nil && strings.TrimSpace(s) != "" {
				return s, finishReason
			}
		}
	}
	return "", finishReason
}

// lookupString walks maps by string key and slices by int index
func lookupString(v any, path ...any) string {
	for _, key := range path {
		switch k := key.(type) {
		case string:
			m, ok := v.(map[string]any)
			if !ok {
				return ""
			}
			v = m[k]
		case int:
			s, ok := v.([]any)
			if !ok || k >= len(s) {
				return ""
			}
			v = s[k]
		}
	}
	s, _ := v.(string)
	return s
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrNetworkFailure):
		return "network"
	case errors.Is(err, ErrUpstream):
		return "upstream"
	case errors.Is(err, ErrEmptyResponse):
		return "empty"
	case errors.Is(err, ErrOracleDisabled):
		return "disabled"
	default:
		return "error"
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
