package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"neuralflux/internal/config"
	"neuralflux/internal/metrics"
)

func newTestGateway(t *testing.T, url string, timeout time.Duration) *AIGateway {
	t.Helper()
	cfg := &config.AIConfig{APIKey: "test-key", BaseURL: url, Model: "test-model", Timeout: timeout}
	return NewAIGateway(cfg, zap.NewNop(), metrics.NewNop())
}

func serveBody(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestAIGatewayComplete(t *testing.T) {
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		serveBody(http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"Hello there"},"finish_reason":"stop"}]}`)(w, r)
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL, time.Second)
	content, err := g.Complete(context.Background(), []ChatMessage{{Role: "user", Content: "hi"}}, 0.7, 500)
	require.NoError(t, err)
	assert.Equal(t, "Hello there", content)
	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, 500, got.MaxTokens)
	assert.InDelta(t, 0.7, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 1)
}

func TestAIGatewayResponseShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"array wrapped", `[{"choices":[{"message":{"content":"from array"}}]}]`, "from array"},
		{"choice content", `{"choices":[{"content":"choice level"}]}`, "choice level"},
		{"delta content", `{"choices":[{"delta":{"content":"streamed"}}]}`, "streamed"},
		{"top level message", `{"message":{"content":"top message"}}`, "top message"},
		{"bare content", `{"content":"bare"}`, "bare"},
		{"truncated keeps content", `{"choices":[{"message":{"content":"partial answer"},"finish_reason":"length"}]}`, "partial answer"},
		{"malformed body", `{"choices":[{"text":"salvaged \"quoted\" text"}`, `salvaged "quoted" text`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(serveBody(http.StatusOK, tt.body))
			defer srv.Close()

			content, err := newTestGateway(t, srv.URL, time.Second).Complete(context.Background(), nil, 0.1, 10)
			require.NoError(t, err)
			assert.Equal(t, tt.want, content)
		})
	}
}

func TestAIGatewayEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(serveBody(http.StatusOK, `{"choices":[{"message":{"content":""},"finish_reason":"length"}]}`))
	defer srv.Close()

	_, err := newTestGateway(t, srv.URL, time.Second).Complete(context.Background(), nil, 0.1, 10)
	assert.ErrorIs(t, err, ErrEmptyResponse)
	assert.Contains(t, err.Error(), "length")
}

func TestAIGatewayUpstreamError(t *testing.T) {
	srv := httptest.NewServer(serveBody(http.StatusTooManyRequests, `{"error":"rate limited"}`))
	defer srv.Close()

	_, err := newTestGateway(t, srv.URL, time.Second).Complete(context.Background(), nil, 0.1, 10)
	require.ErrorIs(t, err, ErrUpstream)

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusTooManyRequests, upstream.Status)
	assert.Contains(t, upstream.Body, "rate limited")
}

func TestAIGatewayTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	_, err := newTestGateway(t, srv.URL, 50*time.Millisecond).Complete(context.Background(), nil, 0.1, 10)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestAIGatewayNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(serveBody(http.StatusOK, `{}`))
	url := srv.URL
	srv.Close()

	_, err := newTestGateway(t, url, time.Second).Complete(context.Background(), nil, 0.1, 10)
	require.ErrorIs(t, err, ErrNetworkFailure)

	var netErr *NetworkError
	assert.True(t, errors.As(err, &netErr))
}

func TestAIGatewayDisabled(t *testing.T) {
	g := NewAIGateway(&config.AIConfig{}, zap.NewNop(), metrics.NewNop())
	assert.False(t, g.Enabled())

	_, err := g.Complete(context.Background(), nil, 0.1, 10)
	assert.ErrorIs(t, err, ErrOracleDisabled)
}

func TestLookupString(t *testing.T) {
	var v any
	require.NoError(t, json.Unmarshal([]byte(`{"choices":[{"message":{"content":"x"}}]}`), &v))

	assert.Equal(t, "x", lookupString(v, "choices", 0, "message", "content"))
	assert.Equal(t, "", lookupString(v, "choices", 1, "message", "content"))
	assert.Equal(t, "", lookupString(v, "choices", "message"))
}
